package dto

// UpdateProfileRequest is the self-service profile payload.
type UpdateProfileRequest struct {
	Name            string  `json:"name" validate:"required,min=2,max=120"`
	Email           string  `json:"email" validate:"required,email"`
	StudentCardURL  *string `json:"studentCardUrl" validate:"omitempty,max=1024"`
	ProfilePhotoURL *string `json:"profilePhotoUrl" validate:"omitempty,max=1024"`
}

// ChangeRoleRequest assigns a role to a user.
type ChangeRoleRequest struct {
	UserID string `json:"userId" validate:"required"`
	RoleID string `json:"roleId" validate:"required"`
}

// UserListQuery captures admin user filters.
type UserListQuery struct {
	Search string `form:"search"`
	Role   string `form:"role"`
	Limit  int    `form:"limit"`
	Skip   int    `form:"skip"`
}

// UploadResponse returns the public location of a stored file.
type UploadResponse struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}
