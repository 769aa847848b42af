package repository

import (
	"errors"
	"testing"

	roomserrors "roombook/internal/rooms/errors"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{id: "3b241101-e2bb-4255-8caf-4136c566a962"},
		{id: "", wantErr: true},
		{id: "507f1f77bcf86cd799439011", wantErr: true},
	}

	for _, tt := range tests {
		err := validateID(tt.id)
		if tt.wantErr != (err != nil) {
			t.Errorf("validateID(%q) = %v", tt.id, err)
		}
		if err != nil && !errors.Is(err, roomserrors.ErrInvalidID) {
			t.Errorf("validateID(%q) should wrap ErrInvalidID", tt.id)
		}
	}
}
