// Package film defines the film record and the rules a record must satisfy
// before it may enter the catalog.
package film

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Field names shared by the dialogue draft, storage and seed files.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldRating      = "rating"
	FieldGenre       = "genre"
	FieldActors      = "actors"
	FieldPoster      = "poster"
)

// ActorSeparator is the separator users are asked to put between actors.
const ActorSeparator = ", "

// Film is one catalog record. ID is zero until the catalog assigns it.
type Film struct {
	ID          int64    `json:"id" yaml:"-" db:"id"`
	Name        string   `json:"name" yaml:"name" db:"name" validate:"required,notblank"`
	Description string   `json:"description" yaml:"description" db:"description" validate:"required,notblank"`
	Rating      string   `json:"rating" yaml:"rating" db:"rating" validate:"required,rating"`
	Genre       string   `json:"genre" yaml:"genre" db:"genre" validate:"required,notblank"`
	Actors      []string `json:"actors" yaml:"actors" db:"actors" validate:"required,min=1"`
	Poster      string   `json:"poster" yaml:"poster" db:"poster" validate:"required,poster"`
}

// ParseActors splits a comma separated list and trims every piece.
// Empty pieces are kept, so "A," yields ["A", ""].
func ParseActors(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// ActorsLine joins actors for display.
func (f Film) ActorsLine() string {
	return strings.Join(f.Actors, ActorSeparator)
}

// PosterExtension returns the file extension of the poster URL path without
// the dot. Query strings and fragments are ignored; "" when there is none.
func PosterExtension(poster string) string {
	p := poster
	if u, err := url.Parse(strings.TrimSpace(poster)); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// PosterFileName suggests a file name for the attached poster: the film name
// plus the poster extension, or the bare name when the URL has none.
func (f Film) PosterFileName() string {
	ext := PosterExtension(f.Poster)
	if ext == "" {
		return f.Name
	}
	return f.Name + "." + ext
}

// FromFields builds a film from a dialogue draft. Missing keys stay empty and
// are caught by Validate.
func FromFields(fields map[string]any) Film {
	text := func(key string) string {
		switch v := fields[key].(type) {
		case string:
			return v
		case nil:
			return ""
		default:
			return fmt.Sprint(v)
		}
	}
	f := Film{
		Name:        text(FieldName),
		Description: text(FieldDescription),
		Rating:      text(FieldRating),
		Genre:       text(FieldGenre),
		Poster:      text(FieldPoster),
	}
	switch actors := fields[FieldActors].(type) {
	case []string:
		f.Actors = append([]string(nil), actors...)
	case []any:
		for _, a := range actors {
			f.Actors = append(f.Actors, fmt.Sprint(a))
		}
	case string:
		f.Actors = ParseActors(actors)
	}
	return f
}
