// Package notify sends late-payment notices to taxpayers over SMTP.
package notify

import (
	"context"
	"fmt"

	"github.com/mbodj/retam/internal/config"
	"github.com/mbodj/retam/internal/logger"
	"github.com/mbodj/retam/internal/models"
	mail "github.com/wneessen/go-mail"
)

// Mailer delivers late-payment notices. It satisfies
// services.LateNotifier.
type Mailer struct {
	cfg config.SMTPConfig
	log *logger.Logger
}

// NewMailer creates a Mailer from SMTP configuration.
func NewMailer(cfg config.SMTPConfig, log *logger.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// SendLateNotice emails the taxpayer that a payment arrived after its due
// date. Taxpayers without an email address are skipped silently.
func (m *Mailer) SendLateNotice(ctx context.Context, p *models.Payment, tp *models.Taxpayer) error {
	if tp.Email == nil || *tp.Email == "" {
		m.log.Debug("Skipping late notice, taxpayer has no email", map[string]interface{}{
			"taxpayer_id": tp.ID,
		})
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", m.cfg.From, err)
	}
	if err := msg.To(*tp.Email); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", *tp.Email, err)
	}

	msg.Subject(fmt.Sprintf("Paiement en retard - %s", p.Reference))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Bonjour %s,\n\n"+
			"Votre paiement %s d'un montant de %s FCFA a ete enregistre le %s, "+
			"apres la date d'echeance du %s.\n\n"+
			"Merci de regulariser vos prochaines echeances dans les delais.\n\n"+
			"La regie des taxes municipales",
		tp.Name,
		p.Reference,
		p.Amount.StringFixed(0),
		p.PaymentDate.Format("02/01/2006"),
		p.DueDate.Format("02/01/2006"),
	))

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to build SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send late notice for %s: %w", p.Reference, err)
	}

	m.log.Info("Late payment notice sent", map[string]interface{}{
		"reference":   p.Reference,
		"taxpayer_id": tp.ID,
	})
	return nil
}
