package services

import (
	"context"
	"sync"

	"github.com/rohits-web03/blogapi/internal/auth"
	"golang.org/x/crypto/bcrypt"
)

type sentMail struct {
	kind  string
	to    string
	token string
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (f *fakeMailer) record(m sentMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeMailer) SendVerification(_ context.Context, to, token string) error {
	return f.record(sentMail{kind: "verification", to: to, token: token})
}

func (f *fakeMailer) SendRegistrationComplete(_ context.Context, to string) error {
	return f.record(sentMail{kind: "registration_complete", to: to})
}

func (f *fakeMailer) SendAccountDeletion(_ context.Context, to string) error {
	return f.record(sentMail{kind: "account_deletion", to: to})
}

func (f *fakeMailer) last() sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentMail{}
	}
	return f.sent[len(f.sent)-1]
}

var testHasher = auth.NewHasher(bcrypt.MinCost)
