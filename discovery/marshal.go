package discovery

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"net/url"

	"github.com/nlowe/magichome/mqtt"
)

var (
	// ErrValueRequired is returned when a required field holds its zero value.
	ErrValueRequired = errors.New("value is required")
	// ErrTopicRequired is returned when a required topic is empty, usually because its value is nil.
	ErrTopicRequired = errors.New("topic is required")
	// ErrMissingStateOrCommandTopic is returned by StateAndCommand when only one of the pair is configured.
	ErrMissingStateOrCommandTopic = errors.New("state and command topics must both be configured")

	// Marshalers renders standard library types the way Home Assistant expects them in discovery payloads.
	Marshalers = json.JoinMarshalers(
		json.MarshalToFunc(func(e *jsontext.Encoder, u *url.URL) error {
			return e.WriteToken(jsontext.String(u.String()))
		}),
	)
)

// Topic writes k and topic, or nothing if topic is empty.
func Topic(e *jsontext.Encoder, k string, topic string) error {
	if topic == "" {
		return nil
	}

	return errors.Join(
		e.WriteToken(jsontext.String(k)),
		e.WriteToken(jsontext.String(topic)),
	)
}

// RequiredTopic is like Topic but returns ErrTopicRequired for an empty topic.
func RequiredTopic(name string, e *jsontext.Encoder, k string, topic string) error {
	if topic == "" {
		return fmt.Errorf("%s: %w", name, ErrTopicRequired)
	}

	return Topic(e, k, topic)
}

// StateAndCommand writes the topics of a state value and the command value that changes it. Both may be nil, but if
// one is set the other must be too.
//
// T usually cannot be inferred and must be given explicitly.
func StateAndCommand[T any](name string, e *jsontext.Encoder, sk string, s *mqtt.Value[T], ck string, c *mqtt.RemoteValue[T], prefix string) error {
	if s == nil && c == nil {
		return nil
	}

	if s == nil || c == nil {
		return fmt.Errorf("%s: %w", name, ErrMissingStateOrCommandTopic)
	}

	return errors.Join(
		RequiredTopic(name, e, sk, s.FullyQualifiedTopic(prefix)),
		RequiredTopic(name, e, ck, c.FullyQualifiedTopic(prefix)),
	)
}

// Field encodes v with Marshalers under k, or writes nothing if v is nil.
func Field[T any](e *jsontext.Encoder, k string, v *T) error {
	if v == nil {
		return nil
	}

	return errors.Join(
		e.WriteToken(jsontext.String(k)),
		json.MarshalEncode(e, v, json.WithMarshalers(Marshalers)),
	)
}

// RequiredField is like Field but returns ErrValueRequired for a nil v.
func RequiredField[T any](name string, e *jsontext.Encoder, k string, v *T) error {
	if v == nil {
		return fmt.Errorf("%s: %w", name, ErrValueRequired)
	}

	return Field(e, k, v)
}

// Slice encodes v under k unless it is empty.
func Slice[T any](e *jsontext.Encoder, k string, v []T) error {
	if len(v) == 0 {
		return nil
	}

	return Field(e, k, &v)
}

// Comparable encodes v under k unless it is the zero value of T.
func Comparable[T comparable](e *jsontext.Encoder, k string, v T) error {
	var zero T
	if v == zero {
		return nil
	}

	return Field(e, k, &v)
}

// RequiredComparable is like Comparable but returns ErrValueRequired for the zero value of T.
func RequiredComparable[T comparable](name string, e *jsontext.Encoder, k string, v T) error {
	var zero T
	if v == zero {
		return fmt.Errorf("%s: %w", name, ErrValueRequired)
	}

	return Field(e, k, &v)
}

// ComparableUnless encodes v under k unless it is the zero value of T or equal to def, the value Home Assistant
// assumes when the field is absent.
func ComparableUnless[T comparable](def T, e *jsontext.Encoder, k string, v T) error {
	if v == def {
		return nil
	}

	return Comparable(e, k, v)
}

// Inline encodes every entry of v as a field of the object currently being written.
func Inline[T any](e *jsontext.Encoder, v map[string]T) error {
	var err error
	for k, vv := range v {
		err = errors.Join(
			err,
			e.WriteToken(jsontext.String(k)),
			json.MarshalEncode(e, vv, json.WithMarshalers(Marshalers)),
		)
	}

	return err
}
