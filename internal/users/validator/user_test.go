package validator

import (
	"strings"
	"testing"

	"roombook/pkg/logger"
	"roombook/pkg/model"
)

func TestValidateRegister(t *testing.T) {
	v := NewUserValidator(logger.Discard())

	valid := model.RegisterRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "correct-horse"}

	tests := []struct {
		name    string
		mutate  func(r *model.RegisterRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *model.RegisterRequest) {}},
		{name: "bad email", mutate: func(r *model.RegisterRequest) { r.Email = "ada" }, wantErr: true},
		{name: "short password", mutate: func(r *model.RegisterRequest) { r.Password = "1234567" }, wantErr: true},
		{name: "password past bcrypt limit", mutate: func(r *model.RegisterRequest) { r.Password = strings.Repeat("p", 73) }, wantErr: true},
		{name: "missing first name", mutate: func(r *model.RegisterRequest) { r.FirstName = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			err := v.ValidateRegister(&req)
			if tt.wantErr != (err != nil) {
				t.Errorf("ValidateRegister() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRoleUpdate(t *testing.T) {
	v := NewUserValidator(logger.Discard())

	if err := v.ValidateRoleUpdate(&model.RoleUpdate{Role: model.RoleAdmin}); err != nil {
		t.Errorf("admin role should be valid: %v", err)
	}
	if err := v.ValidateRoleUpdate(&model.RoleUpdate{Role: "root"}); err == nil {
		t.Error("unknown role should be rejected")
	}
}
