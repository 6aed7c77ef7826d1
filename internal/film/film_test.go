package film

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inception() Film {
	return Film{
		Name:        "Inception",
		Description: "Dreams within dreams",
		Rating:      "9",
		Genre:       "Sci-Fi",
		Actors:      []string{"Leonardo DiCaprio", "Tom Hardy"},
		Poster:      "https://x.io/p.jpg",
	}
}

func TestParseActors(t *testing.T) {
	cases := map[string][]string{
		"Tom Hanks, Meg Ryan": {"Tom Hanks", "Meg Ryan"},
		"A,B":                 {"A", "B"},
		"A,":                  {"A", ""},
		"  Solo  ":            {"Solo"},
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseActors(in), in)
	}
}

func TestPosterExtension(t *testing.T) {
	assert.Equal(t, "jpg", PosterExtension("https://x.io/p.jpg"))
	assert.Equal(t, "png", PosterExtension("https://x.io/a/b.PNG?size=large#top"))
	assert.Equal(t, "", PosterExtension("https://x.io/poster"))
	assert.Equal(t, "", PosterExtension("https://x.io.example/dir/"))
}

func TestPosterFileName(t *testing.T) {
	f := inception()
	assert.Equal(t, "Inception.jpg", f.PosterFileName())

	f.Poster = "https://x.io/poster?id=1"
	assert.Equal(t, "Inception", f.PosterFileName())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(inception()))

	f := inception()
	f.Rating = "eleven"
	var verr *ValidationError
	require.True(t, errors.As(Validate(f), &verr))
	assert.Equal(t, FieldRating, verr.Field)

	f.Rating = "NaN"
	require.True(t, errors.As(Validate(f), &verr))
	assert.Equal(t, FieldRating, verr.Field)

	f = inception()
	f.Poster = "ftp://x.io/p.jpg"
	require.True(t, errors.As(Validate(f), &verr))
	assert.Equal(t, FieldPoster, verr.Field)

	f = inception()
	f.Genre = "   "
	require.True(t, errors.As(Validate(f), &verr))
	assert.Equal(t, FieldGenre, verr.Field)

	f = inception()
	f.Actors = nil
	require.True(t, errors.As(Validate(f), &verr))
	assert.Equal(t, FieldActors, verr.Field)
}

func TestValidateField(t *testing.T) {
	assert.NoError(t, ValidateField(FieldName, "Inception"))
	assert.Error(t, ValidateField(FieldName, " "))
	assert.NoError(t, ValidateField(FieldRating, "7,5"))
	assert.NoError(t, ValidateField(FieldRating, "0"))
	assert.Error(t, ValidateField(FieldRating, "10.5"))
	assert.Error(t, ValidateField(FieldRating, "-1"))
	for _, bad := range []string{"NaN", "nan", "Inf", "0x1p3", "1e1", "1_0", "7.5.1"} {
		assert.Error(t, ValidateField(FieldRating, bad), bad)
	}
	assert.NoError(t, ValidateField(FieldRating, " 8.25 "))
	assert.NoError(t, ValidateField(FieldRating, "10."))
	assert.NoError(t, ValidateField(FieldPoster, "http://x.io/p.jpg"))
	assert.Error(t, ValidateField(FieldPoster, "p.jpg"))
	assert.Error(t, ValidateField(FieldPoster, "https:///p.jpg"))
}

func TestFromFields(t *testing.T) {
	f := FromFields(map[string]any{
		FieldName:        "Inception",
		FieldDescription: "Dreams within dreams",
		FieldRating:      "9",
		FieldGenre:       "Sci-Fi",
		FieldActors:      []string{"Leonardo DiCaprio", "Tom Hardy"},
		FieldPoster:      "https://x.io/p.jpg",
	})
	assert.Equal(t, inception(), f)
	assert.Equal(t, "Leonardo DiCaprio, Tom Hardy", f.ActorsLine())

	partial := FromFields(map[string]any{FieldActors: "A,"})
	assert.Equal(t, []string{"A", ""}, partial.Actors)
	assert.Empty(t, partial.Name)
}
