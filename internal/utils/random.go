package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"github.com/montage-crm/planner/backend/internal/conflict"
	"github.com/montage-crm/planner/backend/internal/domain"
	"github.com/mozillazg/go-pinyin"
	"golang.org/x/crypto/bcrypt"
)

var firstNames = []string{
	"Jörg", "Lukas", "Stefan", "Mehmet", "Anna-Lena", "Sabine", "Tobias", "Jan",
	"Katrin", "Sven", "Marco", "Jürgen", "伟", "芳", "Piotr", "Özlem",
}

var lastNames = []string{
	"Müller", "Schmidt", "Schneider", "Fischer", "Weiß", "Becker", "Hoffmann", "Schäfer",
	"Koch", "Yılmaz", "Kowalski", "Wagner", "王", "李", "Zimmermann", "Krüger",
}

var jobTitles = []string{
	"Fenstermontage", "Türmontage", "Aufmaß", "Reklamation", "Wartung", "Rollladen einbauen", "Markise montieren",
}

var transliterations = map[rune]string{
	'ä': "ae", 'ö': "oe", 'ü': "ue", 'ß': "ss", 'ı': "i", 'ş': "s", 'ç': "c", 'ğ': "g",
}

func GenerateRandomFullName() string {
	first := firstNames[rand.Intn(len(firstNames))]
	last := lastNames[rand.Intn(len(lastNames))]

	// chinese names are written family name first without a space
	if isHan(first) && isHan(last) {
		return last + first
	}
	return first + " " + last
}

// UsernameFromFullName turns a display name into a login name: Han characters
// become pinyin, common umlauts are spelled out, and word breaks become dots.
func UsernameFromFullName(fullName string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(fullName) {
		switch {
		case unicode.Is(unicode.Han, r):
			for _, p := range pinyin.LazyConvert(string(r), nil) {
				b.WriteString(p)
			}
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case transliterations[r] != "":
			b.WriteString(transliterations[r])
		case unicode.IsSpace(r) || r == '-':
			if s := b.String(); s != "" && !strings.HasSuffix(s, ".") {
				b.WriteByte('.')
			}
		}
	}

	return strings.Trim(b.String(), ".")
}

func isHan(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Han, r) {
			return false
		}
	}
	return s != ""
}

var digits = "0123456789"

func GenerateRandomInstaller(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomFullName()
	username := UsernameFromFullName(fullName)
	for i := 0; i < 3; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleInstaller,
	}, nil
}

// GenerateRandomBooking places a booking on a half hour grid between 07:00
// and 18:00. It does not look at other bookings of the installer.
func GenerateRandomBooking(installerID int64, date string, createdBy int64) *domain.Booking {
	start := 7*60 + rand.Intn(20)*30
	length := (rand.Intn(6) + 1) * 30
	end := min(start+length, 18*60)

	return &domain.Booking{
		InstallerID: installerID,
		Date:        date,
		StartTime:   conflict.FormatClock(start),
		EndTime:     conflict.FormatClock(end),
		Title:       jobTitles[rand.Intn(len(jobTitles))],
		Description: fmt.Sprintf("Auftrag %s", GenerateRandomID(2, 5)),
		CreatedBy:   createdBy,
	}
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	password := make([]rune, length)
	for i := range password {
		password[i] = letters[rand.Intn(len(letters))]
	}
	return string(password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	id := make([]rune, letterLength+digitLength)
	for i := range id {
		if i < letterLength {
			id[i] = rune('A' + rand.Intn(26))
		} else {
			id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(id)
}
