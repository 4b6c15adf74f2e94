package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/line/line-bot-sdk-go/linebot"
	"github.com/sirupsen/logrus"
)

// LineWebhookHandler receives LINE webhook events. Its only job is to surface
// the group id when the bot joins a chat, so ops can put it in LINE_GROUP_ID
// for absence summaries.
type LineWebhookHandler struct {
	Bot *linebot.Client
}

func NewLineWebhookHandler() *LineWebhookHandler {
	secret := os.Getenv("LINE_CHANNEL_SECRET")
	token := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")

	if secret == "" || token == "" {
		logrus.Warn("LINE credentials missing: webhook disabled")
		return &LineWebhookHandler{}
	}

	bot, err := linebot.New(secret, token)
	if err != nil {
		logrus.WithError(err).Error("Cannot create LINE bot client, webhook disabled")
		return &LineWebhookHandler{}
	}
	return &LineWebhookHandler{Bot: bot}
}

// Handle validates the webhook signature and processes events asynchronously.
// LINE expects a fast 200; event work happens after the response.
func (h *LineWebhookHandler) Handle(c *fiber.Ctx) error {
	if h.Bot == nil {
		return c.SendStatus(fiber.StatusOK)
	}

	signature := c.Get("X-Line-Signature")
	if signature == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	if !validateSignature(os.Getenv("LINE_CHANNEL_SECRET"), c.Body(), signature) {
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	body := make([]byte, len(c.Body()))
	copy(body, c.Body())

	go func(body []byte) {
		var webhook struct {
			Events []*linebot.Event `json:"events"`
		}
		if err := json.Unmarshal(body, &webhook); err != nil {
			logrus.WithError(err).Error("Failed to parse LINE webhook body")
			return
		}

		for _, event := range webhook.Events {
			switch event.Type {
			case linebot.EventTypeJoin:
				groupID := event.Source.GroupID
				if groupID == "" {
					continue
				}
				name := groupID
				if summary, err := h.Bot.GetGroupSummary(groupID).Do(); err == nil {
					name = summary.GroupName
				}
				logrus.WithFields(logrus.Fields{
					"group_id":   groupID,
					"group_name": name,
				}).Info("Bot joined LINE group; set LINE_GROUP_ID to receive absence summaries")
			case linebot.EventTypeLeave:
				logrus.WithField("group_id", event.Source.GroupID).Info("Bot left LINE group")
			}
		}
	}(body)

	return c.SendStatus(fiber.StatusOK)
}

func validateSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
