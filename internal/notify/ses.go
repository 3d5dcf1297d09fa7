package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// ErrNoRecipient is returned when the profile has no email address.
var ErrNoRecipient = errors.New("recipient email is empty")

// EmailSender is the subset of the SESv2 client used here.
// Satisfied by *sesv2.Client.
type EmailSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier sends plain text mail through Amazon SES.
type SESNotifier struct {
	client    EmailSender
	fromEmail string
}

// NewSESNotifier builds a notifier on the default AWS credential chain.
func NewSESNotifier(cfg aws.Config, fromEmail string) *SESNotifier {
	return NewSESNotifierWithClient(sesv2.NewFromConfig(cfg), fromEmail)
}

func NewSESNotifierWithClient(client EmailSender, fromEmail string) *SESNotifier {
	return &SESNotifier{client: client, fromEmail: fromEmail}
}

func (n *SESNotifier) KYCDecision(ctx context.Context, msg KYCDecision) error {
	subject, body := kycMessage(msg)
	return n.send(ctx, msg.To, subject, body)
}

func (n *SESNotifier) OrderStatusChanged(ctx context.Context, msg OrderStatusChange) error {
	subject, body := orderStatusMessage(msg)
	return n.send(ctx, msg.To, subject, body)
}

func (n *SESNotifier) send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return ErrNoRecipient
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.fromEmail),
		Destination:      &sestypes.Destination{ToAddresses: []string{to}},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body:    &sestypes.Body{Text: &sestypes.Content{Data: aws.String(body)}},
			},
		},
	}
	if _, err := n.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func kycMessage(msg KYCDecision) (string, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", greetingName(msg.Name))
	if msg.Approved {
		b.WriteString("Your business verification has been approved. You can now place orders.\n")
		return "Your business account is verified", b.String()
	}
	b.WriteString("Your business verification was not approved.\n\n")
	fmt.Fprintf(&b, "Reason: %s\n\n", msg.Reason)
	b.WriteString("You can update your business details and submit them again.\n")
	return "Your business verification needs attention", b.String()
}

func orderStatusMessage(msg OrderStatusChange) (string, string) {
	subject := fmt.Sprintf("Order %s is %s", msg.OrderNumber, msg.Status)
	body := fmt.Sprintf("Hello %s,\n\nYour order %s is now %s.\n", greetingName(msg.Name), msg.OrderNumber, msg.Status)
	return subject, body
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}
