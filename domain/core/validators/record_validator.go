package validators

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"nexus-backend/domain/core/valueobjects"
	"nexus-backend/pkg/errors"
)

// RecordValidator validates normalized fetch records before they enter a
// resolution graph. Fetchers are external collaborators, so nothing they
// produce is trusted.
type RecordValidator struct {
	identifierPattern *regexp.Regexp
	urlPattern        *regexp.Regexp
	maxContentLength  int
	maxActivities     int
	maxCrossRefs      int
	maxFutureSkew     time.Duration
}

// NewRecordValidator creates a validator with default rules
func NewRecordValidator() *RecordValidator {
	return &RecordValidator{
		identifierPattern: regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`),
		urlPattern:        regexp.MustCompile(`^https?://[^\s]+$`),
		maxContentLength:  5000,
		maxActivities:     500,
		maxCrossRefs:      50,
		maxFutureSkew:     24 * time.Hour,
	}
}

// ValidateNodeKey validates a platform identifier pair
func (v *RecordValidator) ValidateNodeKey(key valueobjects.NodeKey) error {
	validationErrors := errors.NewValidationErrors()

	if key.IsZero() {
		validationErrors.Add("key", "node key is required")
		return validationErrors
	}

	if !key.Platform().IsValid() {
		validationErrors.Add("platform", fmt.Sprintf("unsupported platform: %s", key.Platform()))
	}

	if !v.identifierPattern.MatchString(key.Identifier()) {
		validationErrors.Add("identifier", "identifier contains unsupported characters")
	}

	if validationErrors.HasErrors() {
		return validationErrors
	}
	return nil
}

// ValidateActivity validates a single activity event
func (v *RecordValidator) ValidateActivity(activity valueobjects.ActivityEvent, now time.Time) error {
	validationErrors := errors.NewValidationErrors()

	if len(activity.Content()) > v.maxContentLength {
		validationErrors.Add("content", fmt.Sprintf("content exceeds %d characters", v.maxContentLength))
	}

	if activity.URL() != "" {
		if err := v.validateURL(activity.URL()); err != nil {
			validationErrors.Add("url", err.Error())
		}
	}

	if activity.OccurredAt().After(now.Add(v.maxFutureSkew)) {
		validationErrors.Add("occurredAt", "activity timestamp is in the future")
	}

	if validationErrors.HasErrors() {
		return validationErrors
	}
	return nil
}

// ValidateActivities validates a fetched activity batch
func (v *RecordValidator) ValidateActivities(activities []valueobjects.ActivityEvent, now time.Time) error {
	if len(activities) > v.maxActivities {
		return errors.NewDomainError(
			errors.DomainValidationError,
			"TOO_MANY_ACTIVITIES",
			fmt.Sprintf("activity batch exceeds %d entries", v.maxActivities),
		)
	}

	for i, activity := range activities {
		if err := v.ValidateActivity(activity, now); err != nil {
			return fmt.Errorf("activity %d: %w", i, err)
		}
	}
	return nil
}

// ValidateCrossReferences validates an extracted cross-reference batch
func (v *RecordValidator) ValidateCrossReferences(refs []valueobjects.CrossReference) error {
	if len(refs) > v.maxCrossRefs {
		return errors.NewDomainError(
			errors.DomainValidationError,
			"TOO_MANY_CROSS_REFERENCES",
			fmt.Sprintf("cross-reference batch exceeds %d entries", v.maxCrossRefs),
		)
	}

	for i, ref := range refs {
		if !v.identifierPattern.MatchString(ref.TargetHandle()) {
			return fmt.Errorf("cross-reference %d: handle contains unsupported characters", i)
		}
	}
	return nil
}

func (v *RecordValidator) validateURL(raw string) error {
	if !v.urlPattern.MatchString(raw) {
		return fmt.Errorf("malformed url")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("unparseable url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme: %s", parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("url missing host")
	}
	return nil
}
