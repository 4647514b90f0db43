package testutil

import (
	"net/mail"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/roster"
)

// NewConfig returns a minimal test configuration; no env/.env loading happens.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:          "Darasa",
		Env:              "TEST",
		TestMode:         true,
		SecretKey:        "s3cr3t-t3st-k3y",
		DefaultFromEmail: mail.Address{Address: "noreply@darasa.cd"},
		Server: core.ServerConfig{
			JWTExpirationDelta: time.Hour,
		},
	}
}

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Enable(bool)                  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// ClassSeeder is implemented by repositories that can seed roster data.
type ClassSeeder interface {
	CreateClass(cls roster.Class) roster.Class
	EnrollStudents(classID string, studentIDs ...string)
}

func CreateClass(t *testing.T, repo ClassSeeder, id, name, subject, teacherID string, studentIDs ...string) roster.Class {
	t.Helper()

	tstamp := time.Now().UTC()
	cls := repo.CreateClass(roster.Class{
		ID:        id,
		Name:      name,
		Subject:   subject,
		TeacherID: teacherID,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if len(studentIDs) > 0 {
		repo.EnrollStudents(cls.ID, studentIDs...)
	}
	return cls
}
