package main

import (
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/montage-crm/planner/backend/internal/domain"
)

type mailTemplate struct {
	file    string
	subject string
}

var mailTemplates = map[string]mailTemplate{
	domain.MailTypeCreateUser: {
		file:    "new_account_email.html",
		subject: "Montage Planner - your account",
	},
	domain.MailTypeResetPassword: {
		file:    "reset_password_otp_email.html",
		subject: "Montage Planner - reset your password",
	},
	domain.MailTypeBookingAssigned: {
		file:    "booking_assigned_email.html",
		subject: "Montage Planner - new assignment",
	},
	domain.MailTypeBookingOverride: {
		file:    "booking_override_email.html",
		subject: "Montage Planner - overlapping assignment",
	},
}

// loadTemplates parses every mail template once at startup.
func loadTemplates(dir string) (map[string]*template.Template, error) {
	tmpls := make(map[string]*template.Template, len(mailTemplates))
	for typ, mt := range mailTemplates {
		tmpl, err := template.ParseFiles(filepath.Join(dir, mt.file))
		if err != nil {
			return nil, fmt.Errorf("template for %s: %w", typ, err)
		}
		tmpls[typ] = tmpl
	}
	return tmpls, nil
}
