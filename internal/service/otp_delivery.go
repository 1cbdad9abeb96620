package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/myrush/myrush-api/pkg/jobs"
)

// OTPDeliveryJobType identifies queued OTP SMS jobs.
const OTPDeliveryJobType = "otp.sms"

// OTPDelivery is the payload of an OTP SMS job.
type OTPDelivery struct {
	PhoneNumber string
	Code        string
}

// SMSSender delivers text messages to a phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// LogSMSSender writes messages to the log instead of an SMS gateway.
type LogSMSSender struct {
	logger *zap.Logger
}

// NewLogSMSSender constructs a LogSMSSender.
func NewLogSMSSender(logger *zap.Logger) *LogSMSSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSMSSender{logger: logger}
}

// Send logs the message.
func (s *LogSMSSender) Send(ctx context.Context, phone, message string) error {
	s.logger.Info("sms dispatched", zap.String("phone_number", phone), zap.String("message", message))
	return nil
}

// NewOTPDeliveryHandler returns the queue handler that sends OTP codes over SMS.
func NewOTPDeliveryHandler(sender SMSSender, metrics *MetricsService, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		delivery, ok := job.Payload.(OTPDelivery)
		if !ok {
			metrics.RecordOTPDispatch("invalid_payload")
			logger.Error("unexpected otp job payload", zap.String("job_id", job.ID))
			return nil
		}

		message := fmt.Sprintf("Your MyRush verification code is %s", delivery.Code)
		if err := sender.Send(ctx, delivery.PhoneNumber, message); err != nil {
			metrics.RecordOTPDispatch("failed")
			return fmt.Errorf("send otp sms: %w", err)
		}
		metrics.RecordOTPDispatch("sent")
		return nil
	}
}

// OTPDeliveryAbandoned counts OTP jobs the queue gave up on.
func OTPDeliveryAbandoned(metrics *MetricsService) func(jobs.Job, error) {
	return func(jobs.Job, error) {
		metrics.RecordOTPDispatch("abandoned")
	}
}
