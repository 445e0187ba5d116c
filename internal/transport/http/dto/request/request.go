package request

type LoginRequest struct {
	Identifier string `form:"username" validate:"required"`
	Password   string `form:"password" validate:"required"`
	Remember   string `form:"remember"`
	Next       string `form:"next"`
}

type RegisterRequest struct {
	Username        string `form:"username"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

type PersonForm struct {
	Name         string `form:"name" validate:"required"`
	Nickname     string `form:"nickname"`
	Relationship string `form:"relationship"`
	BirthYear    string `form:"birth_year"`
	Notes        string `form:"notes"`
}

type RenameForm struct {
	NewName string `form:"new_name" validate:"required"`
}

type TagForm struct {
	PersonID int64 `form:"person_id" validate:"required"`
}
