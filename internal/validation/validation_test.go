package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	City string `json:"city" validate:"required"`
}

type sample struct {
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"min=6"`
	Slug     string    `json:"slug" validate:"omitempty,slug"`
	Address  address   `json:"address"`
	Items    []address `json:"items" validate:"dive"`
}

func TestStruct(t *testing.T) {
	valid := sample{
		Email:    "user@example.com",
		Password: "secret1",
		Slug:     "summer-dress",
		Address:  address{City: "Moscow"},
	}

	tests := []struct {
		name    string
		mutate  func(s *sample)
		wantErr string
	}{
		{name: "valid", mutate: func(*sample) {}},
		{name: "missing email", mutate: func(s *sample) { s.Email = "" }, wantErr: "email is required"},
		{name: "bad email", mutate: func(s *sample) { s.Email = "nope" }, wantErr: "email must be a valid email"},
		{name: "short password", mutate: func(s *sample) { s.Password = "123" }, wantErr: "password must be at least 6 characters"},
		{name: "bad slug", mutate: func(s *sample) { s.Slug = "Summer Dress" }, wantErr: "slug must contain only lowercase letters, digits and dashes"},
		{name: "nested", mutate: func(s *sample) { s.Address.City = "" }, wantErr: "address.city is required"},
		{name: "slice element", mutate: func(s *sample) { s.Items = []address{{}} }, wantErr: "items[0].city is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)

			err := Struct(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("email", "a@b.io", "required,email"))

	err := Var("email", "", "required,email")
	require.Error(t, err)
	assert.Equal(t, "email is required", err.Error())
}

func TestIsSlug(t *testing.T) {
	assert.True(t, IsSlug("t-shirts"))
	assert.True(t, IsSlug("a1"))
	assert.False(t, IsSlug("-leading"))
	assert.False(t, IsSlug("double--dash"))
	assert.False(t, IsSlug("Upper"))
	assert.False(t, IsSlug(""))
}
