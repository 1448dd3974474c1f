package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/bowerhall/rumbo/internal/assistant"
	"github.com/bowerhall/rumbo/internal/config"
	"github.com/bowerhall/rumbo/internal/logger"
)

const chatHelp = `Comandos:
  /aprobar   aprueba la acción pendiente
  /rechazar  rechaza la acción pendiente
  /nueva     empieza una conversación nueva
  /salir     termina la sesión`

var chatCommands = []string{"/aprobar", "/rechazar", "/nueva", "/salir", "/ayuda"}

func newChatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			a, err := build(cfg)
			if err != nil {
				return err
			}

			return runChat(cmd.Context(), a.assistant, sessionID, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id to resume")
	return cmd
}

// chatSession is the REPL state, kept apart from liner so it can be tested.
type chatSession struct {
	assistant *assistant.Service
	sessionID string
	pending   bool
	out       io.Writer
}

// handle processes one input line and reports whether the REPL should exit.
func (c *chatSession) handle(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)

	switch input {
	case "":
		return false, nil
	case "/salir":
		return true, nil
	case "/ayuda":
		fmt.Fprintln(c.out, chatHelp)
		return false, nil
	case "/nueva":
		c.sessionID, c.pending = "", false
		fmt.Fprintln(c.out, "Nueva conversación.")
		return false, nil
	case "/aprobar", "/rechazar":
		if c.sessionID == "" {
			fmt.Fprintln(c.out, "No hay ninguna conversación activa.")
			return false, nil
		}
		reply, err := c.assistant.SubmitApproval(ctx, c.sessionID, input == "/aprobar")
		if err != nil {
			return false, err
		}
		c.pending = false
		c.print(reply)
		return false, nil
	}

	reply, err := c.assistant.SubmitUtterance(ctx, c.sessionID, input)
	if err != nil {
		return false, err
	}
	c.sessionID = reply.SessionID
	c.pending = reply.RequiresApproval
	c.print(reply)
	return false, nil
}

func (c *chatSession) print(reply *assistant.Reply) {
	fmt.Fprintf(c.out, "\nrumbo> %s\n\n", reply.Response)
	if reply.RequiresApproval {
		fmt.Fprintln(c.out, "(usa /aprobar o /rechazar)")
	}
}

func runChat(ctx context.Context, svc *assistant.Service, sessionID string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		var matches []string
		for _, c := range chatCommands {
			if strings.HasPrefix(c, input) {
				matches = append(matches, c)
			}
		}
		return matches
	})

	historyPath := chatHistoryPath()
	if f, err := os.Open(historyPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	session := &chatSession{assistant: svc, sessionID: sessionID, out: out}
	fmt.Fprintln(out, "Rumbo, asistente de viaje. Escribe /ayuda para ver los comandos.")

	for {
		prompt := "tú> "
		if session.pending {
			prompt = "tú (aprobación pendiente)> "
		}

		input, err := line.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line.AppendHistory(input)

		done, err := session.handle(ctx, input)
		if err != nil {
			logger.Error("chat turn failed", "session", session.sessionID, "error", err)
			fmt.Fprintln(out, "Algo salió mal:", err)
			continue
		}
		if done {
			return nil
		}
	}
}

func chatHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rumbo_history"
	}
	return filepath.Join(home, ".rumbo_history")
}
