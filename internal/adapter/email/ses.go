package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"
	"github.com/ali-abouelaish/FleetManager-sub004/internal/domain/mail"
)

type sesAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender delivers mail through Amazon SES.
type SESSender struct {
	client sesAPI
	from   string
}

var _ mail.Sender = (*SESSender)(nil)

func NewSESSender(ctx context.Context, region, from string) (*SESSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SESSender{client: ses.NewFromConfig(cfg), from: from}, nil
}

func (s *SESSender) Send(ctx context.Context, m mail.Message) error {
	if len(m.To) == 0 {
		return apperr.Validation("email has no recipients")
	}
	body := &types.Body{}
	if m.Text != "" {
		body.Text = &types.Content{Data: aws.String(m.Text), Charset: aws.String("UTF-8")}
	}
	if m.HTML != "" {
		body.Html = &types.Content{Data: aws.String(m.HTML), Charset: aws.String("UTF-8")}
	}
	if body.Text == nil && body.Html == nil {
		return errors.New("email body is empty")
	}
	msg := &types.Message{
		Subject: &types.Content{Data: aws.String(m.Subject), Charset: aws.String("UTF-8")},
		Body:    body,
	}
	// One message per recipient so no address is disclosed to the others.
	var errs []error
	for _, to := range m.To {
		_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
			Source:      aws.String(s.from),
			Destination: &types.Destination{ToAddresses: []string{to}},
			Message:     msg,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", to, err))
		}
	}
	if len(errs) > 0 {
		return apperr.Upstream(errors.Join(errs...),
			fmt.Sprintf("ses send email (%d of %d failed)", len(errs), len(m.To)))
	}
	return nil
}
