// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"jury-service/internal/common/config"
	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/common/logger"
	"jury-service/internal/models"
)

// Interfaces over the AWS clients for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier delivers decision emails to applicants and reminder
// messages to jurors. Everything here is fire-and-forget from the
// workflow's point of view: a failed send is logged by the caller and
// never rolls back a decision.
type Notifier struct {
	cfg       config.NotificationConfig
	sesClient SESService
	snsClient SNSService
	logger    logger.Logger
}

func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Notifier{
		cfg:       cfg,
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
	}, nil
}

// NewWithClients wires explicit SES/SNS implementations; used in tests.
func NewWithClients(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:       cfg,
		sesClient: sesClient,
		snsClient: snsClient,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

// DecisionIssued emails the applicant the final decision.
func (n *Notifier) DecisionIssued(ctx context.Context, app *models.Application, decision models.Decision, reason string, averageScore float64) error {
	if !n.cfg.Email.Enabled {
		n.logger.Debug("email disabled, decision notification skipped", map[string]interface{}{
			"applicationRef": app.Reference,
		})
		return nil
	}
	if app.Applicant.Email == "" {
		n.logger.Warn("applicant has no email address", map[string]interface{}{
			"applicationRef": app.Reference,
		})
		return nil
	}

	var subject, body string
	switch decision {
	case models.DecisionApprove:
		subject = fmt.Sprintf("Votre demande %s a été approuvée", app.Reference)
		body = fmt.Sprintf(
			"Bonjour %s,\n\nVotre demande de participation (%s) a été approuvée par le jury avec une note moyenne de %.1f/100.\nVotre attestation vous parviendra séparément.\n",
			app.Applicant.Name, app.Reference, averageScore)
	case models.DecisionReject:
		subject = fmt.Sprintf("Votre demande %s a été refusée", app.Reference)
		body = fmt.Sprintf(
			"Bonjour %s,\n\nVotre demande de participation (%s) a été refusée par le jury.\nMotif : %s\n",
			app.Applicant.Name, app.Reference, reason)
	default:
		return apperrors.NewNotificationSendFailedError(fmt.Errorf("unknown decision: %s", decision))
	}

	if err := n.sendEmail(ctx, app.Applicant.Email, subject, body); err != nil {
		return apperrors.NewNotificationSendFailedError(err)
	}

	n.logger.Info("decision notification sent", map[string]interface{}{
		"applicationRef": app.Reference,
		"decision":       string(decision),
	})
	return nil
}

// RemindPendingJurors nudges every juror who has not yet scored the
// application: email always, SMS when enabled and a phone is on file.
func (n *Notifier) RemindPendingJurors(ctx context.Context, app *models.Application, pending []models.Evaluator) error {
	subject := fmt.Sprintf("Évaluation en attente : demande %s", app.Reference)
	body := fmt.Sprintf(
		"La demande %s (%s) attend votre évaluation. Le président du jury ne peut pas statuer tant que toutes les évaluations ne sont pas déposées.",
		app.Reference, app.Business.CompanyName)

	var firstErr error
	for _, juror := range pending {
		if n.cfg.Email.Enabled && juror.Email != "" {
			if err := n.sendEmail(ctx, juror.Email, subject, body); err != nil {
				n.logger.Error("juror reminder email failed", map[string]interface{}{
					"evaluatorId": juror.ID,
					"error":       err,
				})
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		if n.cfg.SMS.Enabled && juror.Phone != "" {
			if err := n.sendSMS(ctx, juror.Phone, body); err != nil {
				n.logger.Error("juror reminder SMS failed", map[string]interface{}{
					"evaluatorId": juror.ID,
					"error":       err,
				})
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}

	if firstErr != nil {
		return apperrors.NewNotificationSendFailedError(firstErr)
	}
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.cfg.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

func (n *Notifier) sendSMS(ctx context.Context, phone, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	}
	_, err := n.snsClient.Publish(ctx, input)
	return err
}
