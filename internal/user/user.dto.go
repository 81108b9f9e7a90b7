package user

type EnsureUserRequest struct {
	FirebaseUID string `json:"firebaseUid" validate:"required"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Provider    string `json:"provider"`
}
