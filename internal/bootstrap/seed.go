// Package bootstrap carga fixtures (clients, users, codes) en los stores.
// Pensado para desarrollo y demos; en producción los clients vienen del
// registro real.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/tokensmith/internal/domain"
	"github.com/dropDatabas3/tokensmith/internal/security/password"
	"github.com/dropDatabas3/tokensmith/internal/store/memory"
)

// ClientWriter acepta clients (todos los drivers lo implementan).
type ClientWriter interface {
	PutClient(ctx context.Context, c *domain.Client) error
}

// CodeWriter acepta authorization codes.
type CodeWriter interface {
	PutCode(ctx context.Context, g *domain.AuthorizationGrant) error
}

// SeedUser es un resource owner del fixture; el password viene en claro y
// se guarda hasheado (argon2id).
type SeedUser struct {
	SubjectID string `yaml:"subject_id"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// SeedCode es un authorization code pre-emitido del fixture.
type SeedCode struct {
	Code        string    `yaml:"code"`
	SubjectID   string    `yaml:"subject_id"`
	ClientID    string    `yaml:"client_id"`
	Scope       []string  `yaml:"scope"`
	RedirectURI string    `yaml:"redirect_uri"`
	Nonce       string    `yaml:"nonce"`
	IssuedAt    time.Time `yaml:"issued_at"` // zero = ahora
}

// SeedFile es el formato del fixture YAML.
type SeedFile struct {
	Clients []domain.Client `yaml:"clients"`
	Users   []SeedUser      `yaml:"users"`
	Codes   []SeedCode      `yaml:"codes"`
}

// Load lee y parsea el fixture.
func Load(path string) (*SeedFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var sf SeedFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &sf, nil
}

// Apply escribe el fixture en los stores. users puede ser nil cuando el
// driver no maneja usuarios locales.
func (sf *SeedFile) Apply(ctx context.Context, clients ClientWriter, codes CodeWriter, users *memory.UserStore) error {
	for i := range sf.Clients {
		c := sf.Clients[i]
		if c.AuthMethod == "" {
			if c.Secret == "" {
				c.AuthMethod = domain.AuthMethodNone
			} else {
				c.AuthMethod = domain.AuthMethodBasic
			}
		}
		if err := clients.PutClient(ctx, &c); err != nil {
			return fmt.Errorf("seed client %s: %w", c.ClientID, err)
		}
	}

	for _, u := range sf.Users {
		if users == nil {
			break
		}
		hash, err := password.Hash(password.Default, u.Password)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		users.Put(&memory.User{
			SubjectID:    u.SubjectID,
			Username:     u.Username,
			PasswordHash: hash,
		})
	}

	for _, sc := range sf.Codes {
		issuedAt := sc.IssuedAt
		if issuedAt.IsZero() {
			issuedAt = time.Now()
		}
		grant := &domain.AuthorizationGrant{
			Code:        sc.Code,
			SubjectID:   sc.SubjectID,
			ClientID:    sc.ClientID,
			IssuedAt:    issuedAt,
			Scope:       sc.Scope,
			Nonce:       sc.Nonce,
			RedirectURI: sc.RedirectURI,
			AuthTime:    issuedAt,
		}
		if err := codes.PutCode(ctx, grant); err != nil {
			return fmt.Errorf("seed code %s: %w", sc.Code, err)
		}
	}
	return nil
}
