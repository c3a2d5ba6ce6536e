// internal/notify/notifier_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"

	"jury-service/internal/common/config"
	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/common/logger"
	"jury-service/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

// ==========================
// Test Helper Functions
// ==========================

func testNotificationConfig(email, sms bool) config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = email
	cfg.Email.FromEmail = "jury@example.org"
	cfg.SMS.Enabled = sms
	cfg.SMS.SenderID = "JURY"
	cfg.AWS.Region = "eu-west-1"
	return cfg
}

func testApplication() *models.Application {
	return &models.Application{
		Reference: "MKT-TEST0001",
		Applicant: models.ApplicantProfile{
			Name:  "Awa Diop",
			Email: "awa@example.org",
		},
		Business: models.BusinessInfo{CompanyName: "Karite Naturel"},
	}
}

// ==========================
// Decision Notifications
// ==========================

func TestDecisionIssued_ApprovalEmail(t *testing.T) {
	var sent *ses.SendEmailInput
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			sent = params
			return &ses.SendEmailOutput{}, nil
		},
	}

	n := NewWithClients(testNotificationConfig(true, false), sesMock, &MockSNSService{}, logger.NewNoOpLogger())

	err := n.DecisionIssued(context.Background(), testApplication(), models.DecisionApprove, "", 86.7)
	assert.NoError(t, err)

	assert.NotNil(t, sent)
	assert.Equal(t, "jury@example.org", *sent.Source)
	assert.Equal(t, []string{"awa@example.org"}, sent.Destination.ToAddresses)
	assert.Contains(t, *sent.Message.Subject.Data, "MKT-TEST0001")
	assert.Contains(t, *sent.Message.Body.Text.Data, "86.7")
}

func TestDecisionIssued_RejectionIncludesReason(t *testing.T) {
	var sent *ses.SendEmailInput
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			sent = params
			return &ses.SendEmailOutput{}, nil
		},
	}

	n := NewWithClients(testNotificationConfig(true, false), sesMock, &MockSNSService{}, logger.NewNoOpLogger())

	err := n.DecisionIssued(context.Background(), testApplication(), models.DecisionReject, "Dossier incomplet", 40.0)
	assert.NoError(t, err)
	assert.Contains(t, *sent.Message.Body.Text.Data, "Dossier incomplet")
}

func TestDecisionIssued_EmailDisabledSkipsSend(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			t.Fatal("SendEmail must not be called when email is disabled")
			return nil, nil
		},
	}

	n := NewWithClients(testNotificationConfig(false, false), sesMock, &MockSNSService{}, logger.NewNoOpLogger())

	err := n.DecisionIssued(context.Background(), testApplication(), models.DecisionApprove, "", 80.0)
	assert.NoError(t, err)
}

func TestDecisionIssued_SESFailureReported(t *testing.T) {
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("ses unavailable")
		},
	}

	n := NewWithClients(testNotificationConfig(true, false), sesMock, &MockSNSService{}, logger.NewNoOpLogger())

	err := n.DecisionIssued(context.Background(), testApplication(), models.DecisionApprove, "", 80.0)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotificationSendFailed))
}

// ==========================
// Juror Reminders
// ==========================

func TestRemindPendingJurors_EmailAndSMS(t *testing.T) {
	emails := 0
	smses := 0

	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			emails++
			return &ses.SendEmailOutput{}, nil
		},
	}
	snsMock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			smses++
			return &sns.PublishOutput{}, nil
		},
	}

	n := NewWithClients(testNotificationConfig(true, true), sesMock, snsMock, logger.NewNoOpLogger())

	pending := []models.Evaluator{
		{ID: "j1", Email: "j1@example.org", Phone: "+221770000001", Role: models.RoleJury},
		{ID: "j2", Email: "j2@example.org", Role: models.RoleJury},
	}
	err := n.RemindPendingJurors(context.Background(), testApplication(), pending)
	assert.NoError(t, err)

	assert.Equal(t, 2, emails)
	assert.Equal(t, 1, smses, "SMS only goes to jurors with a phone on file")
}

func TestRemindPendingJurors_PartialFailureStillTriesAll(t *testing.T) {
	emails := 0
	sesMock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			emails++
			if emails == 1 {
				return nil, errors.New("throttled")
			}
			return &ses.SendEmailOutput{}, nil
		},
	}

	n := NewWithClients(testNotificationConfig(true, false), sesMock, &MockSNSService{}, logger.NewNoOpLogger())

	pending := []models.Evaluator{
		{ID: "j1", Email: "j1@example.org"},
		{ID: "j2", Email: "j2@example.org"},
	}
	err := n.RemindPendingJurors(context.Background(), testApplication(), pending)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeNotificationSendFailed))
	assert.Equal(t, 2, emails)
}
