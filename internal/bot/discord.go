package bot

import (
	"context"
	"fmt"

	"github.com/bowerhall/rumbo/internal/logger"
	"github.com/bwmarrin/discordgo"
)

const discordMessageLimit = 2000

type discord struct {
	session *discordgo.Session
	ctx     context.Context
	dispatcher
}

func newDiscord(token string, a Assistant) (Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	d := &discord{
		session:    session,
		ctx:        context.Background(),
		dispatcher: dispatcher{assistant: a},
	}

	session.AddHandler(d.handleMessage)
	session.AddHandler(d.handleInteraction)

	return d, nil
}

func (d *discord) Name() string { return "discord" }

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}
	logger.Info("discord bot started")

	<-ctx.Done()
	return d.session.Close()
}

func discordSessionID(channelID string) string {
	return fmt.Sprintf("discord:%s", channelID)
}

func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}

	sessionID := discordSessionID(m.ChannelID)
	logger.Info("message received", "session", sessionID, "from", m.Author.Username, "text", truncate(m.Content, 50))

	s.ChannelTyping(m.ChannelID)

	out := d.handleText(d.ctx, sessionID, m.Content)
	if out.Text == "" {
		return
	}

	chunks := splitMessage(out.Text, discordMessageLimit)
	for i, chunk := range chunks {
		send := &discordgo.MessageSend{Content: chunk}
		if i == 0 {
			send.Reference = m.Reference()
		}
		if i == len(chunks)-1 && out.ApprovalID != "" {
			send.Components = approvalButtons(out.ApprovalID)
		}

		if _, err := s.ChannelMessageSendComplex(m.ChannelID, send); err != nil {
			logger.Error("discord reply failed", "session", sessionID, "error", err)
			return
		}
	}
	logger.Info("reply sent", "session", sessionID, "chars", len(out.Text), "approval", out.ApprovalID)
}

func (d *discord) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	text := d.handleDecision(d.ctx, i.MessageComponentData().CustomID)

	// replacing the message content also removes the buttons
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    text,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		logger.Error("discord interaction response failed", "error", err)
	}
}

func approvalButtons(approvalID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    approveLabel,
					Style:    discordgo.SuccessButton,
					CustomID: callbackData(true, approvalID),
				},
				discordgo.Button{
					Label:    rejectLabel,
					Style:    discordgo.DangerButton,
					CustomID: callbackData(false, approvalID),
				},
			},
		},
	}
}
