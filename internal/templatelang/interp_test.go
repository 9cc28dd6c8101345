package templatelang_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/templatelang"
	"github.com/aerstatic/aer/internal/value"
)

func render(t *testing.T, source string, ctx *value.Table) string {
	t.Helper()
	if ctx == nil {
		ctx = value.NewTable()
	}
	out, err := templatelang.Render(source, ctx)
	require.NoError(t, err)
	return out
}

func TestIfTruthy(t *testing.T) {
	ctx := value.NewTable()
	ctx.Set("is_empty", value.Text("true"))
	assert.Equal(t, "This is empty!", render(t, "{~ if is_empty}This is empty!{~ end}", ctx))
}

func TestIfNegatedFalse(t *testing.T) {
	ctx := value.NewTable()
	ctx.Set("is_empty", value.Text("false"))
	assert.Equal(t, "Not empty!", render(t, "{~ if not is_empty}Not empty!{~ end}", ctx))
}

func TestIfNegatedMissingVariable(t *testing.T) {
	assert.Equal(t, "Default content", render(t, "{~ if not missing}Default content{~ end}", nil))
}

func TestForList(t *testing.T) {
	ctx := value.NewTable()
	ctx.Set("items", value.List(value.Text("apple"), value.Text("banana"), value.Text("cherry")))
	got := render(t, "Items: [{~ for item in items}{~ get item}, {~ end}]", ctx)
	assert.Equal(t, "Items: [apple, banana, cherry, ]", got)
}

func TestGetFallbackChain(t *testing.T) {
	ctx := value.NewTable()
	ctx.Set("c", value.Text("third"))
	assert.Equal(t, "third", render(t, "{~ get a or b or c}", ctx))
}

func TestGetFallbackNoneResolved(t *testing.T) {
	assert.Equal(t, "{~ get title or name }", render(t, "{~ get title or name}", nil))
}

func TestDottedGet(t *testing.T) {
	inner := value.NewTable()
	inner.Set("c", value.Text("deep"))
	middle := value.NewTable()
	middle.Set("b", value.TableValue(inner))
	ctx := value.NewTable()
	ctx.Set("a", value.TableValue(middle))
	assert.Equal(t, "deep", render(t, "{~ get a.b.c}", ctx))
}

func TestMissingDottedPath(t *testing.T) {
	assert.Equal(t, "{~ get user.missing }", render(t, "{~ get user.missing}", nil))
}

func TestIncludesPart(t *testing.T) {
	ctx := value.NewTable()
	ctx.Set(templatelang.PartKeyPrefix+"_header.html", value.Text("<header>Header</header>"))
	got := render(t, `<html>{~ use "_header.html"}<body>Hello</body></html>`, ctx)
	assert.Equal(t, "<html><header>Header</header><body>Hello</body></html>", got)
}

func TestIncludesPartWithFrontmatter(t *testing.T) {
	ctx := value.NewTable()
	partContent := "charset = \"utf-8\"\n\n***\n<meta charset=\"{~ get charset}\">"
	ctx.Set(templatelang.PartKeyPrefix+"_meta.html", value.Text(partContent))
	got := render(t, `<html>{~ use "_meta.html"}</html>`, ctx)
	assert.Equal(t, `<html><meta charset="utf-8"></html>`, got)
}

func TestUseWithStringParam(t *testing.T) {
	ctx := value.NewTable()
	ctx.Set(templatelang.PartKeyPrefix+"_greeting.html", value.Text("<p>{~ get message}</p>"))
	got := render(t, `{~ use "_greeting.html", with "Hello" as message}`, ctx)
	assert.Equal(t, "<p>Hello</p>", got)
}

func TestUseWithIdentifierParamNoCommas(t *testing.T) {
	ctx := value.NewTable()
	ctx.Set("author", value.Text("Bob"))
	ctx.Set(templatelang.PartKeyPrefix+"_card.html", value.Text("<h1>{~ get title}</h1><p>{~ get byline}</p>"))
	got := render(t, `{~ use "_card.html" with "Welcome" as title with author as byline}`, ctx)
	assert.Equal(t, "<h1>Welcome</h1><p>Bob</p>", got)
}

func TestForKVIteratesTableInOrder(t *testing.T) {
	colors := value.NewTable()
	colors.Set("blue", value.Text("#00f"))
	colors.Set("red", value.Text("#f00"))
	ctx := value.NewTable()
	ctx.Set("colors", value.TableValue(colors))

	got := render(t, `{~ for key, val in colors}{~ get key}={~ get val} {~ end}`, ctx)
	assert.Equal(t, "blue=#00f red=#f00 ", got)
}

func TestIfIsStringMatch(t *testing.T) {
	ctx := value.NewTable()
	ctx.Set("role", value.Text("admin"))
	assert.Equal(t, "yes", render(t, `{~ if role is "admin"}yes{~ end}`, ctx))
}

func TestIfIsNotStringWhenMissing(t *testing.T) {
	assert.Equal(t, "yes", render(t, `{~ if missing is not "value"}yes{~ end}`, nil))
}

func TestForAssetsQueryDefersWhenPending(t *testing.T) {
	ctx := value.NewTable()
	ctx.Set(templatelang.AssetsKeyPrefix+"blog", value.List())
	_, err := templatelang.Render(`{~ for post in assets "blog"}{~ get post.title}{~ end}`, ctx)
	require.Error(t, err)
	require.True(t, procerr.Is(err, procerr.KindDeferred))
}

func TestForAssetsQueryIterates(t *testing.T) {
	entry1 := value.NewTable()
	entry1.Set("title", value.Text("hello"))
	entry2 := value.NewTable()
	entry2.Set("title", value.Text("world"))

	ctx := value.NewTable()
	ctx.Set(templatelang.AssetsKeyPrefix+"blog", value.List(value.TableValue(entry1), value.TableValue(entry2)))

	got := render(t, `{~ for post in assets "blog"}{~ get post.title} {~ end}`, ctx)
	assert.Equal(t, "hello world ", got)
}

func TestForAssetsQueryUnknownPathErrors(t *testing.T) {
	_, err := templatelang.Render(`{~ for post in assets "blog"}{~ get post.title}{~ end}`, value.NewTable())
	require.Error(t, err)
}
