package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/config"
)

var ErrNoRecipient = errors.New("recipient is required")

// SESAPI is the part of the SESv2 client used for run notices.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESClient sends plain-text run notices from the configured sender.
type SESClient struct {
	api    SESAPI
	sender string
}

// NewSESClientFromConfig returns nil without error when notices are not
// configured. Credentials come from the environment, not config.yaml.
func NewSESClientFromConfig(ctx context.Context, cfg config.EmailConfig) (*SESClient, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSESClientWithAPI(sesv2.NewFromConfig(awsCfg), cfg.Sender), nil
}

func NewSESClientWithAPI(api SESAPI, sender string) *SESClient {
	return &SESClient{api: api, sender: strings.TrimSpace(sender)}
}

func (c *SESClient) Send(ctx context.Context, recipient, subject, body string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return ErrNoRecipient
	}

	_, err := c.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(c.sender),
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")}},
			},
		},
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("recipient", recipient).Str("subject", subject).Msg("SES rejected run notice")
		return fmt.Errorf("send run notice to %s: %w", recipient, err)
	}
	return nil
}
