package dto

// ProfileFields are the optional player attributes shared by profile writes and OTP verification.
type ProfileFields struct {
	FullName     *string  `json:"full_name" validate:"omitempty,max=100"`
	Age          *int     `json:"age" validate:"omitempty,min=5,max=120"`
	City         *string  `json:"city" validate:"omitempty,max=100"`
	Gender       *string  `json:"gender" validate:"omitempty,max=20"`
	Handedness   *string  `json:"handedness" validate:"omitempty,max=20"`
	SkillLevel   *string  `json:"skill_level" validate:"omitempty,max=50"`
	Sports       []string `json:"sports" validate:"omitempty,dive,max=50"`
	PlayingStyle *string  `json:"playing_style" validate:"omitempty,max=100"`
}

// HasAny reports whether any field was supplied.
func (p ProfileFields) HasAny() bool {
	return p.FullName != nil || p.Age != nil || p.City != nil || p.Gender != nil ||
		p.Handedness != nil || p.SkillLevel != nil || p.Sports != nil || p.PlayingStyle != nil
}

// UpsertProfileRequest creates or updates the caller's profile.
type UpsertProfileRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=8,max=20"`
	ProfileFields
}
