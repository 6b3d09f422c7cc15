// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

var (
	// ErrRateLimited marks a provider failure caused by upstream rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmptyResponse indicates the backend answered without any content.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrUnknownBackend indicates an unsupported Config.Backend value.
	ErrUnknownBackend = errors.New("unknown ai backend")
)

// Kind classifies a provider failure.
type Kind int

const (
	// KindPermanent failures will not succeed on retry (auth, bad request).
	KindPermanent Kind = iota
	// KindTransient failures may succeed on retry (timeouts, 5xx).
	KindTransient
	// KindRateLimited failures are transient failures caused by upstream
	// rate limiting. They are the only kind RetryWithBackoff retries.
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindPermanent:
		return "permanent"
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate-limited"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ProviderError wraps a failure from an embedding or completion backend.
type ProviderError struct {
	Op   string // e.g. "embed", "complete"
	Kind Kind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s provider error: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is reports rate-limited provider errors as ErrRateLimited.
func (e *ProviderError) Is(target error) bool {
	return target == ErrRateLimited && e.Kind == KindRateLimited
}

// Transient reports whether the failure may succeed on retry.
func (e *ProviderError) Transient() bool {
	return e.Kind == KindTransient || e.Kind == KindRateLimited
}

// IsRateLimited reports whether err is a rate-limit-class provider failure.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsTransient reports whether err is a provider failure that may succeed on retry.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Transient()
	}
	return false
}

var rateLimitMarkers = []string{
	"429",
	"rate limit",
	"rate_limit",
	"rate exceeded",
	"too many requests",
	"toomanyrequests",
	"throttlingexception",
	"throttled",
}

var rateLimitCodes = map[string]bool{
	"ThrottlingException":      true,
	"TooManyRequestsException": true,
}

var transientCodes = map[string]bool{
	"InternalServerException":     true,
	"ServiceUnavailableException": true,
	"ModelTimeoutException":       true,
	"ModelNotReadyException":      true,
}

var transientMarkers = []string{
	"500",
	"502",
	"503",
	"504",
	"internalserverexception",
	"serviceunavailable",
	"connection reset",
	"connection refused",
	"timeout",
	"eof",
}

// Classify wraps err from a backend call as a *ProviderError, inferring its
// Kind from the error chain and message. Nil stays nil and errors that are
// already a *ProviderError are returned unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	if errors.Is(err, ErrRateLimited) {
		return KindRateLimited
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	if errors.Is(err, context.Canceled) {
		return KindPermanent
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case rateLimitCodes[code]:
			return KindRateLimited
		case transientCodes[code], apiErr.ErrorFault() == smithy.FaultServer:
			return KindTransient
		default:
			return KindPermanent
		}
	}

	msg := strings.ToLower(err.Error())
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return KindRateLimited
		}
	}
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return KindTransient
		}
	}
	return KindPermanent
}
