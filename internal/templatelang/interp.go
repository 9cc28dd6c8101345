package templatelang

import (
	"fmt"
	"strings"

	"github.com/aerstatic/aer/internal/frontmatter"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/value"
)

// PartKeyPrefix namespaces a part's raw source text in the build context,
// set by the orchestrator when it discovers an asset whose path has an
// "_"-prefixed component.
const PartKeyPrefix = "_part:"

// AssetsKeyPrefix namespaces the list of published per-asset metadata for
// a source directory, incrementally populated by the orchestrator as
// assets in that directory finish processing.
const AssetsKeyPrefix = "_assets:"

// MaxUseDepth bounds recursive `{~ use}` part inclusion, guarding against
// a part that (directly or transitively) includes itself.
const MaxUseDepth = 16

// Render compiles source, resolving every `{~ ... }` directive against
// ctx, and returns the rendered text.
func Render(source string, ctx *value.Table) (string, error) {
	nodes, err := Lex(source)
	if err != nil {
		return "", procerr.WrapRecoverable(err, "template parse error")
	}
	var out strings.Builder
	if err := renderNodes(nodes, ctx, 0, &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

func renderNodes(nodes []Node, ctx *value.Table, depth int, out *strings.Builder) error {
	i := 0
	for i < len(nodes) {
		switch n := nodes[i].(type) {
		case TextNode:
			out.WriteString(n.Text)
			i++
		case BlockNode:
			next, err := renderBlock(n, nodes, i, ctx, depth, out)
			if err != nil {
				return err
			}
			i = next
		default:
			i++
		}
	}
	return nil
}

// renderBlock renders the directive at nodes[i] (consuming any block body
// it owns) and returns the index of the next unconsumed node.
func renderBlock(n BlockNode, nodes []Node, i int, ctx *value.Table, depth int, out *strings.Builder) (int, error) {
	switch n.Name {
	case "get":
		text, err := evalGet(n.Args, ctx)
		if err != nil {
			return 0, err
		}
		out.WriteString(text)
		return i + 1, nil

	case "if":
		should, err := evalIf(n.Args, ctx)
		if err != nil {
			return 0, err
		}
		body, next, err := skipBlock(nodes, i+1)
		if err != nil {
			return 0, err
		}
		if should {
			if err := renderNodes(body, ctx, depth, out); err != nil {
				return 0, err
			}
		}
		return next, nil

	case "for":
		body, next, err := skipBlock(nodes, i+1)
		if err != nil {
			return 0, err
		}
		if err := evalFor(n.Args, ctx, body, depth, out); err != nil {
			return 0, err
		}
		return next, nil

	case "use":
		if err := evalUse(n.Args, ctx, depth, out); err != nil {
			return 0, err
		}
		return i + 1, nil

	case "end":
		return 0, procerr.Recoverable("unexpected end-of-block")

	default:
		return 0, procerr.Recoverable(fmt.Sprintf("unknown template directive: %s", n.Name))
	}
}

// skipBlock finds the "end" matching the block opened just before
// nodes[start], returning its body and the index after "end".
func skipBlock(nodes []Node, start int) (body []Node, next int, err error) {
	depth := 0
	for i := start; i < len(nodes); i++ {
		bn, ok := nodes[i].(BlockNode)
		if !ok {
			continue
		}
		switch bn.Name {
		case "if", "for":
			depth++
		case "end":
			if depth == 0 {
				return nodes[start:i], i + 1, nil
			}
			depth--
		}
	}
	return nil, 0, procerr.Recoverable("template contained an unclosed block")
}

func evalGet(args []Arg, ctx *value.Table) (string, error) {
	if len(args) == 0 {
		return "", procerr.Recoverable("missing variable identifier in get expression")
	}
	first, ok := args[0].Ident()
	if !ok {
		return "", procerr.Recoverable("get expects an identifier")
	}

	identifiers := []string{first}
	i := 1
	for i < len(args) {
		if !args[i].IsIdent("or") {
			return "", procerr.Recoverable(fmt.Sprintf("expected 'or' in get expression, got %q", args[i].Display()))
		}
		if i+1 >= len(args) {
			return "", procerr.Recoverable("missing variable identifier after 'or'")
		}
		next, ok := args[i+1].Ident()
		if !ok {
			return "", procerr.Recoverable("identifier expected after 'or'")
		}
		identifiers = append(identifiers, next)
		i += 2
	}

	for _, id := range identifiers {
		v, ok := ctx.Dotted(id)
		if ok && (v.IsText() || v.IsList()) {
			return v.CoerceText(), nil
		}
	}

	return "{~ get " + strings.Join(identifiers, " or ") + " }", nil
}

func evalIf(args []Arg, ctx *value.Table) (bool, error) {
	if len(args) == 0 {
		return false, procerr.Recoverable("missing variable identifier in if expression")
	}
	first, ok := args[0].Ident()
	if !ok {
		return false, procerr.Recoverable("if expects an identifier")
	}

	isComparison := len(args) > 1 && args[1].IsIdent("is")
	if isComparison {
		identifier := first
		negate := false
		valueIndex := 2
		if len(args) > 2 && args[2].IsIdent("not") {
			negate = true
			valueIndex = 3
		}
		if len(args) <= valueIndex {
			return false, procerr.Recoverable("missing value in 'is' comparison")
		}
		compareArg := args[valueIndex]

		var rhs string
		var rhsOK bool
		if s, ok := compareArg.Str(); ok {
			rhs, rhsOK = s, true
		} else if id, ok := compareArg.Ident(); ok {
			if v, ok := ctx.Dotted(id); ok && v.IsText() {
				rhs, rhsOK = v.CoerceText(), true
			}
		}

		var lhs string
		var lhsOK bool
		if v, ok := ctx.Dotted(identifier); ok && v.IsText() {
			lhs, lhsOK = v.CoerceText(), true
		}

		matches := lhsOK && rhsOK && lhs == rhs
		if negate {
			return !matches, nil
		}
		return matches, nil
	}

	negate := false
	identifier := first
	if first == "not" {
		if len(args) < 2 {
			return false, procerr.Recoverable("missing variable identifier after 'not'")
		}
		next, ok := args[1].Ident()
		if !ok {
			return false, procerr.Recoverable("identifier expected after 'not'")
		}
		negate = true
		identifier = next
	}

	truthy := false
	if v, ok := ctx.Dotted(identifier); ok {
		truthy = v.Truthy()
	}
	if negate {
		return !truthy, nil
	}
	return truthy, nil
}

func evalFor(args []Arg, ctx *value.Table, body []Node, depth int, out *strings.Builder) error {
	if len(args) == 0 {
		return procerr.Recoverable("missing item identifier in for loop")
	}
	first, ok := args[0].Ident()
	if !ok {
		return procerr.Recoverable("for expects an identifier")
	}

	isKV := len(args) == 4 && args[2].IsIdent("in")
	isAssetsQuery := !isKV && len(args) == 4 && args[1].IsIdent("in") && args[2].IsIdent("assets")
	if isAssetsQuery {
		if _, ok := args[3].Str(); !ok {
			isAssetsQuery = false
		}
	}

	switch {
	case isKV:
		keyIdent := first
		valIdent, ok := args[1].Ident()
		if !ok {
			return procerr.Recoverable("for key, val loop expects an identifier for val")
		}
		tableIdent, ok := args[3].Ident()
		if !ok {
			return procerr.Recoverable("for key, val loop expects a table identifier")
		}
		resolved, ok := ctx.Dotted(tableIdent)
		if !ok || !resolved.IsTable() {
			return nil
		}
		table, _ := resolved.AsTable()
		for _, k := range table.Keys() {
			v, _ := table.Get(k)
			loopCtx := ctx.Clone()
			loopCtx.Set(keyIdent, value.Text(k))
			loopCtx.Set(valIdent, v)
			if err := renderNodes(body, loopCtx, depth, out); err != nil {
				return err
			}
		}
		return nil

	case isAssetsQuery:
		itemIdent := first
		dirPath, _ := args[3].Str()
		assetsVal, ok := ctx.Get(AssetsKeyPrefix + dirPath)
		if !ok {
			return procerr.Deferred(fmt.Sprintf("assets not yet published at path: %s", dirPath))
		}
		items, isList := assetsVal.AsList()
		if !isList {
			return procerr.Recoverable(fmt.Sprintf("no assets found at path: %s", dirPath))
		}
		if len(items) == 0 {
			return procerr.Deferred(fmt.Sprintf("assets not yet published at path: %s", dirPath))
		}
		for _, item := range items {
			loopCtx := ctx.Clone()
			loopCtx.Set(itemIdent, item)
			if err := renderNodes(body, loopCtx, depth, out); err != nil {
				return err
			}
		}
		return nil

	default:
		itemIdent := first
		if len(args) < 3 || !args[1].IsIdent("in") {
			return procerr.Recoverable("expected 'in' in for loop")
		}
		collectionIdent, ok := args[2].Ident()
		if !ok {
			return procerr.Recoverable("missing collection identifier in for loop")
		}
		resolved, ok := ctx.Dotted(collectionIdent)
		if !ok || !resolved.IsList() {
			return nil
		}
		items, _ := resolved.AsList()
		for _, item := range items {
			loopCtx := ctx.Clone()
			loopCtx.Set(itemIdent, item)
			if err := renderNodes(body, loopCtx, depth, out); err != nil {
				return err
			}
		}
		return nil
	}
}

func evalUse(args []Arg, ctx *value.Table, depth int, out *strings.Builder) error {
	if depth+1 > MaxUseDepth {
		return procerr.Recoverable("maximum part inclusion depth exceeded")
	}
	if len(args) == 0 {
		return procerr.Recoverable("missing path in use expression")
	}
	path, ok := args[0].Str()
	if !ok {
		return procerr.Recoverable("use expects a quoted path")
	}

	partVal, ok := ctx.Get(PartKeyPrefix + path)
	if !ok {
		return procerr.Recoverable(fmt.Sprintf("part not found: %s", path))
	}
	partContent, ok := partVal.AsText()
	if !ok {
		return procerr.Recoverable(fmt.Sprintf("part not found: %s", path))
	}

	frontmatterTable, body, _ := frontmatter.Split(partContent)
	partCtx := ctx.Clone()
	if frontmatterTable != nil {
		partCtx = partCtx.Merge(frontmatterTable)
	}

	i := 1
	for i < len(args) {
		if !args[i].IsIdent("with") {
			return procerr.Recoverable(fmt.Sprintf("expected 'with' in use expression, got %q", args[i].Display()))
		}
		if i+1 >= len(args) {
			return procerr.Recoverable("missing value after 'with' in use expression")
		}
		valueArg := args[i+1]

		var resolvedValue value.Value
		if s, ok := valueArg.Str(); ok {
			resolvedValue = value.Text(s)
		} else if id, ok := valueArg.Ident(); ok {
			if v, ok := ctx.Dotted(id); ok {
				resolvedValue = v
			} else {
				resolvedValue = value.Text("")
			}
		} else {
			return procerr.Recoverable("invalid value in 'with' clause")
		}

		if i+2 >= len(args) || !args[i+2].IsIdent("as") {
			return procerr.Recoverable("missing 'as' in 'with' clause")
		}
		if i+3 >= len(args) {
			return procerr.Recoverable("missing key after 'as' in 'with' clause")
		}
		key, ok := args[i+3].Ident()
		if !ok {
			return procerr.Recoverable("key after 'as' must be an identifier")
		}

		partCtx.SetDotted(key, resolvedValue)
		i += 4
	}

	bodyNodes, err := Lex(body)
	if err != nil {
		return procerr.WrapRecoverable(err, "template parse error in part "+path)
	}
	return renderNodes(bodyNodes, partCtx, depth+1, out)
}
