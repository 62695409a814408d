package notifier

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	mail "github.com/wneessen/go-mail"

	"github.com/releasewatch/releasewatch/models"
)

// EmailNotifier announces a release by mailing the configured recipient
// via SMTP.
type EmailNotifier struct {
	conf *viper.Viper
}

func NewEmailNotifier(conf *viper.Viper) *EmailNotifier {
	return &EmailNotifier{conf: conf}
}

func (n *EmailNotifier) Kind() models.Channel {
	return models.ChannelEmail
}

func (n *EmailNotifier) Configured() bool {
	return n.conf.GetBool("email_enabled") && n.conf.GetString("email_to") != ""
}

func (n *EmailNotifier) Notify(ctx context.Context, release *models.Release, repo *models.Repository) error {
	message := NewMessage(n.conf, release, repo)

	msg := mail.NewMsg()
	if err := msg.From(n.conf.GetString("email_from")); err != nil {
		return errors.Wrap(err, "email sender address not valid")
	}
	if err := msg.To(n.conf.GetString("email_to")); err != nil {
		return errors.Wrap(err, "email recipient address not valid")
	}
	msg.Subject(message.Summary)
	msg.SetBodyString(mail.TypeTextPlain, message.Description)

	opts := []mail.Option{mail.WithPort(n.conf.GetInt("smtp_port"))}
	if username := n.conf.GetString("smtp_username"); username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(n.conf.GetString("smtp_password")),
		)
	}
	smtp, err := mail.NewClient(n.conf.GetString("smtp_host"), opts...)
	if err != nil {
		return errors.Wrap(err, "starting smtp client failed")
	}
	if err := smtp.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrapf(err, "issue mailing notification for [%s]", release.URL)
	}
	return nil
}
