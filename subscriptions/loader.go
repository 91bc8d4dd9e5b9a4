package subscriptions

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/ztrans-apps/crm-sub001/webhook"
	"gopkg.in/yaml.v3"
)

/* Loader reads webhook subscriptions from a YAML seed file
 * Entries without an id get one derived from tenant and name,
 * so seeding the same file twice updates rows instead of duplicating them
 */

const (
	DefaultRetryCount = 3
	DefaultTimeoutMS  = 30000
)

// File is the structure of a subscriptions file
type File struct {
	Webhooks []Entry `yaml:"webhooks"`
}

// Entry is a single webhook in the YAML file
type Entry struct {
	ID         string   `yaml:"id"`
	TenantID   string   `yaml:"tenant_id"`
	Name       string   `yaml:"name"`
	URL        string   `yaml:"url"`
	Secret     string   `yaml:"secret"`
	Events     []string `yaml:"events"`
	IsActive   *bool    `yaml:"is_active"`   // Default: true
	RetryCount *int     `yaml:"retry_count"` // Default: 3
	TimeoutMS  *int     `yaml:"timeout_ms"`  // Default: 30000
}

// Loader holds the loaded webhooks by id
type Loader struct {
	webhooks map[string]webhook.Webhook
}

func NewLoader() *Loader {
	return &Loader{
		webhooks: make(map[string]webhook.Webhook),
	}
}

// Load reads and parses a subscriptions file
func (l *Loader) Load(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("reading subscriptions file: %w", err)
	}
	return l.Parse(data)
}

// Parse validates every entry; nothing is kept when one entry is invalid
func (l *Loader) Parse(data []byte) error {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing subscriptions YAML: %w", err)
	}

	loaded := make(map[string]webhook.Webhook, len(file.Webhooks))
	for i, e := range file.Webhooks {
		w, err := e.toWebhook()
		if err != nil {
			return fmt.Errorf("webhook #%d: %w", i+1, err)
		}
		if err := w.Validate(); err != nil {
			return fmt.Errorf("validating webhook %s: %w", w.ID, err)
		}
		if _, dup := loaded[w.ID]; dup {
			return fmt.Errorf("duplicate webhook id %s", w.ID)
		}
		loaded[w.ID] = w
	}

	for id, w := range loaded {
		l.webhooks[id] = w
	}
	return nil
}

func (e Entry) toWebhook() (webhook.Webhook, error) {
	w := webhook.Webhook{
		ID:         e.ID,
		TenantID:   e.TenantID,
		Name:       e.Name,
		URL:        e.URL,
		Secret:     e.Secret,
		Events:     e.Events,
		IsActive:   true,
		RetryCount: DefaultRetryCount,
		TimeoutMS:  DefaultTimeoutMS,
	}
	if e.IsActive != nil {
		w.IsActive = *e.IsActive
	}
	if e.RetryCount != nil {
		w.RetryCount = *e.RetryCount
	}
	if e.TimeoutMS != nil {
		w.TimeoutMS = *e.TimeoutMS
	}

	if w.ID == "" {
		if w.Name == "" {
			return webhook.Webhook{}, fmt.Errorf("either id or name is required")
		}
		w.ID = StableID(w.TenantID, w.Name)
	}
	return w, nil
}

// StableID derives a webhook id from tenant and name
func StableID(tenantID, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("crm-webhook:"+tenantID+"/"+name)).String()
}

// Get retrieves a webhook by its id
func (l *Loader) Get(id string) (webhook.Webhook, error) {
	w, ok := l.webhooks[id]
	if !ok {
		return webhook.Webhook{}, fmt.Errorf("webhook not found: %s", id)
	}
	return w, nil
}

// List returns all loaded webhooks ordered by tenant, then id
func (l *Loader) List() []webhook.Webhook {
	list := make([]webhook.Webhook, 0, len(l.webhooks))
	for _, w := range l.webhooks {
		list = append(list, w)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].TenantID != list[j].TenantID {
			return list[i].TenantID < list[j].TenantID
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// Seed upserts every loaded webhook and returns how many were written
func (l *Loader) Seed(ctx context.Context, w webhook.SubscriptionWriter) (int, error) {
	n := 0
	for _, hook := range l.List() {
		if err := w.UpsertWebhook(ctx, hook); err != nil {
			return n, fmt.Errorf("seeding webhook %s: %w", hook.ID, err)
		}
		n++
	}
	return n, nil
}
