package notification

import (
	"context"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends messages as SMS.
type TwilioSender struct {
	api    messageCreator
	from   string
	logger *zap.Logger
}

func NewTwilioSender(accountSID, authToken, from string, logger *zap.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{api: client.Api, from: from, logger: logger}
}

func (s *TwilioSender) Send(_ context.Context, msg Message) Result {
	body := Render(msg.Template, msg.Data)
	var failed []string
	for _, to := range msg.Recipients {
		if to == "" {
			continue
		}
		params := &twilioApi.CreateMessageParams{}
		params.SetTo(to)
		params.SetFrom(s.from)
		params.SetBody(body)

		resp, err := s.api.CreateMessage(params)
		if err != nil {
			s.logger.Warn("Failed to send SMS", zap.String("to", to), zap.String("template", msg.Template), zap.Error(err))
			failed = append(failed, to+": "+err.Error())
			continue
		}
		if resp != nil && resp.Sid != nil {
			s.logger.Debug("SMS sent", zap.String("to", to), zap.String("sid", *resp.Sid))
		}
	}
	if len(failed) > 0 {
		return Result{Success: false, Error: strings.Join(failed, "; ")}
	}
	return Result{Success: true}
}
