package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"remote-job-scraper/internal/models"
)

func TestRunDeduplicator_Admit(t *testing.T) {
	d := NewRunDeduplicator()

	first := models.JobPosting{Title: "Engineer", Company: "Acme", URL: "u1", Source: "A"}
	sameDifferentCase := models.JobPosting{Title: "engineer", Company: "ACME", URL: "u2", Source: "B"}
	otherCompany := models.JobPosting{Title: "Engineer", Company: "Globex", URL: "u1", Source: "A"}

	assert.True(t, d.Admit(first))
	assert.False(t, d.Admit(first), "exact repeat must be rejected")
	assert.False(t, d.Admit(sameDifferentCase), "identity ignores case, source and URL")
	assert.True(t, d.Admit(otherCompany), "same URL but different identity is admitted")
	assert.Equal(t, 2, d.Seen())
}

func TestRunDeduplicator_SeparatorCollision(t *testing.T) {
	d := NewRunDeduplicator()

	//these would collide under naive "title|company" concatenation
	assert.True(t, d.Admit(models.JobPosting{Title: "a|b", Company: "c"}))
	assert.True(t, d.Admit(models.JobPosting{Title: "a", Company: "b|c"}))
}

func TestRunDeduplicator_Reset(t *testing.T) {
	d := NewRunDeduplicator()
	job := models.JobPosting{Title: "Engineer", Company: "Acme"}

	assert.True(t, d.Admit(job))
	d.Reset()

	assert.Equal(t, 0, d.Seen())
	assert.True(t, d.Admit(job))
}
