package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/myrush/myrush-api/internal/dto"
	"github.com/myrush/myrush-api/internal/models"
	appErrors "github.com/myrush/myrush-api/pkg/errors"
	"github.com/myrush/myrush-api/pkg/jobs"
	"github.com/myrush/myrush-api/pkg/logger"
)

type otpRepository interface {
	Create(ctx context.Context, otp *models.OTPVerification) error
	FindRedeemable(ctx context.Context, phone, code string, now time.Time) (*models.OTPVerification, error)
	FindLatest(ctx context.Context, phone string) (*models.OTPVerification, error)
	MarkVerified(ctx context.Context, id int64) error
}

type otpUserRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type sessionIssuer interface {
	IssueSession(ctx context.Context, user *models.User, ip, userAgent string) (*models.LoginResponse, error)
}

type phoneLimiter interface {
	Allow(key string) bool
}

// OTPConfig controls code generation and the dev bypass.
type OTPConfig struct {
	DevMode bool
	DevCode string
	Length  int
	TTL     time.Duration
}

// OTPService implements phone sign-in by one-time code.
type OTPService struct {
	otps       otpRepository
	users      otpUserRepository
	profiles   profileRepository
	sessions   sessionIssuer
	limiter    phoneLimiter
	dispatcher jobs.Dispatcher
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	config     OTPConfig
	now        func() time.Time
}

// NewOTPService constructs an OTPService.
func NewOTPService(
	otps otpRepository,
	users otpUserRepository,
	profiles profileRepository,
	sessions sessionIssuer,
	limiter phoneLimiter,
	dispatcher jobs.Dispatcher,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	config OTPConfig,
) *OTPService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Length <= 0 {
		config.Length = 6
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	return &OTPService{
		otps:       otps,
		users:      users,
		profiles:   profiles,
		sessions:   sessions,
		limiter:    limiter,
		dispatcher: dispatcher,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		config:     config,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SendOTP issues a code for the phone number and queues its delivery.
func (s *OTPService) SendOTP(ctx context.Context, req dto.SendOTPRequest) (*dto.SendOTPResponse, error) {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid phone number")
	}

	log := logger.ForRequest(ctx, s.logger).With(zap.String("phone_number", req.PhoneNumber))

	if s.limiter != nil && !s.limiter.Allow(req.PhoneNumber) {
		s.metrics.RecordOTPDispatch("rate_limited")
		return nil, appErrors.Clone(appErrors.ErrTooManyRequests, "too many OTP requests, try again later")
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to generate OTP")
	}

	now := s.now()
	record := &models.OTPVerification{
		PhoneNumber: req.PhoneNumber,
		OTPCode:     code,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.config.TTL),
	}
	if err := s.otps.Create(ctx, record); err != nil {
		return nil, appErrors.Internal(err, "failed to store OTP")
	}

	if err := s.dispatcher.Enqueue(jobs.Job{
		Type:    OTPDeliveryJobType,
		Payload: OTPDelivery{PhoneNumber: req.PhoneNumber, Code: code},
	}); err != nil {
		s.metrics.RecordOTPDispatch("enqueue_failed")
		if !s.config.DevMode {
			return nil, appErrors.Internal(err, "failed to dispatch OTP")
		}
		log.Warn("otp delivery not queued", zap.Error(err))
	}

	resp := &dto.SendOTPResponse{
		Message:        "OTP sent successfully",
		Success:        true,
		VerificationID: strconv.FormatInt(record.ID, 10),
	}
	if s.config.DevMode {
		resp.OTPCode = &code
		log.Debug("dev otp issued", zap.String("otp_code", code))
	}
	return resp, nil
}

// VerifyOTP redeems a code. New users without a name get NeedsProfile; everyone else
// is created or updated and receives tokens.
func (s *OTPService) VerifyOTP(ctx context.Context, req dto.VerifyOTPRequest) (*dto.VerifyOTPResponse, error) {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	req.OTPCode = strings.TrimSpace(req.OTPCode)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid verification payload")
	}

	if err := s.redeem(ctx, req.PhoneNumber, req.OTPCode); err != nil {
		return nil, err
	}

	user, err := s.users.FindByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Internal(err, "failed to load user")
		}
		user = nil
	}

	isNewUser := user == nil
	if isNewUser && req.FullName == nil {
		return &dto.VerifyOTPResponse{
			NeedsProfile: true,
			PhoneNumber:  req.PhoneNumber,
			Message:      "Please complete your profile",
			IsNewUser:    true,
		}, nil
	}

	if isNewUser {
		user, err = s.createPhoneUser(ctx, req)
		if err != nil {
			return nil, err
		}
	} else if req.HasAny() {
		if err := s.mergeProfile(ctx, user.ID, req); err != nil {
			return nil, err
		}
	}

	entry := models.NewAuditLog(user.ID, models.AuditActionOTPVerify, models.AuditResourceAuth, user.ID,
		map[string]interface{}{"new_user": isNewUser}).WithClient(req.IP, req.UserAgent)
	if err := s.users.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", models.AuditActionOTPVerify), zap.Error(err))
	}

	session, err := s.sessions.IssueSession(ctx, user, req.IP, req.UserAgent)
	if err != nil {
		return nil, err
	}

	return &dto.VerifyOTPResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
		IsNewUser:    isNewUser,
		User:         &session.User,
	}, nil
}

func (s *OTPService) redeem(ctx context.Context, phone, code string) error {
	if s.config.DevMode && s.config.DevCode != "" && code == s.config.DevCode {
		latest, err := s.otps.FindLatest(ctx, phone)
		switch {
		case err == nil:
			if !latest.IsVerified {
				if err := s.otps.MarkVerified(ctx, latest.ID); err != nil {
					return appErrors.Internal(err, "failed to verify OTP")
				}
			}
			return nil
		case errors.Is(err, sql.ErrNoRows):
			return nil
		default:
			return appErrors.Internal(err, "failed to load OTP")
		}
	}

	record, err := s.otps.FindRedeemable(ctx, phone, code, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidOTP, "Invalid or expired OTP")
		}
		return appErrors.Internal(err, "failed to load OTP")
	}
	if record.Expired(s.now()) {
		return appErrors.Clone(appErrors.ErrInvalidOTP, "Invalid or expired OTP")
	}
	if err := s.otps.MarkVerified(ctx, record.ID); err != nil {
		return appErrors.Internal(err, "failed to verify OTP")
	}
	return nil
}

func (s *OTPService) createPhoneUser(ctx context.Context, req dto.VerifyOTPRequest) (*models.User, error) {
	secret, err := newOpaqueToken()
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create user")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create user")
	}

	phone := req.PhoneNumber
	firstName := strings.TrimSpace(*req.FullName)
	if firstName == "" {
		firstName = "User"
	}
	user := &models.User{
		Email:        models.PhoneAccountEmail(phone),
		PhoneNumber:  &phone,
		PasswordHash: string(hash),
		FirstName:    &firstName,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already registered")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	profile := &models.Profile{ID: user.ID, PhoneNumber: &phone}
	if err := applyProfileFields(profile, req.ProfileFields); err != nil {
		return nil, appErrors.Invalid(err, "invalid sports list")
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Internal(err, "failed to save profile")
	}
	return user, nil
}

func (s *OTPService) mergeProfile(ctx context.Context, userID string, req dto.VerifyOTPRequest) error {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return appErrors.Internal(err, "failed to load profile")
		}
		profile = &models.Profile{ID: userID}
	}
	phone := req.PhoneNumber
	profile.PhoneNumber = &phone
	if err := applyProfileFields(profile, req.ProfileFields); err != nil {
		return appErrors.Invalid(err, "invalid sports list")
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return appErrors.Internal(err, "failed to save profile")
	}
	return nil
}

func (s *OTPService) generateCode() (string, error) {
	if s.config.DevMode && s.config.DevCode != "" {
		return s.config.DevCode, nil
	}
	var b strings.Builder
	b.Grow(s.config.Length)
	ten := big.NewInt(10)
	for i := 0; i < s.config.Length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
