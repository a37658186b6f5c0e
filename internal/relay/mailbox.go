// Package relay hands a captured PDF from a page observer to a dashboard
// started later. It is a single slot: the newest publish wins and reads do
// not clear it.
package relay

import (
	"time"

	"github.com/patrickmn/go-cache"
)

const slotKey = "web-pdf"

// Envelope is the mailbox content.
type Envelope struct {
	PDFDataBase64 string
	PDFURL        string
	// Error is set when the observer saw a PDF but could not read it.
	Error       string
	PublishedAt time.Time
}

// Empty reports whether the envelope carries no PDF.
func (e Envelope) Empty() bool {
	return e.PDFDataBase64 == ""
}

// Mailbox is the single-slot store. Entries older than maxAge are dropped;
// a zero maxAge keeps the entry until it is overwritten.
type Mailbox struct {
	cache  *cache.Cache
	maxAge time.Duration
	now    func() time.Time
}

// NewMailbox creates an empty mailbox.
func NewMailbox(maxAge time.Duration) *Mailbox {
	expiry, cleanup := cache.NoExpiration, time.Duration(0)
	if maxAge > 0 {
		expiry, cleanup = maxAge, maxAge
	}
	return &Mailbox{
		cache:  cache.New(expiry, cleanup),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Publish overwrites the slot and returns the stored envelope.
func (m *Mailbox) Publish(env Envelope) Envelope {
	env.PublishedAt = m.now().UTC()
	m.cache.Set(slotKey, env, cache.DefaultExpiration)
	return env
}

// Consume returns the latest envelope without clearing it.
func (m *Mailbox) Consume() (Envelope, bool) {
	v, ok := m.cache.Get(slotKey)
	if !ok {
		return Envelope{}, false
	}
	env := v.(Envelope)
	if m.maxAge > 0 && m.now().Sub(env.PublishedAt) > m.maxAge {
		return Envelope{}, false
	}
	return env, true
}

// Clear empties the slot.
func (m *Mailbox) Clear() {
	m.cache.Delete(slotKey)
}
