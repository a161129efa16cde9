// printer.go — AST dumping for the `pp ast` subcommand and for debugging
// parser output in tests.
package pypolicy

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNode renders an indented tree view of the AST.
func FormatNode(n Node) string {
	var b strings.Builder
	writeNode(&b, n, 0)
	return b.String()
}

func writeNode(b *strings.Builder, n Node, depth int) {
	pad := strings.Repeat("  ", depth)
	switch t := n.(type) {
	case *NilLit:
		fmt.Fprintf(b, "%sNil\n", pad)
	case *BoolLit:
		fmt.Fprintf(b, "%sBool %v\n", pad, t.V)
	case *IntLit:
		fmt.Fprintf(b, "%sInt %d\n", pad, t.V)
	case *NumLit:
		fmt.Fprintf(b, "%sNum %s\n", pad, strconv.FormatFloat(t.V, 'g', -1, 64))
	case *StrLit:
		fmt.Fprintf(b, "%sStr %s\n", pad, strconv.Quote(t.V))
	case *Ident:
		fmt.Fprintf(b, "%sIdent %s\n", pad, t.Name)
	case *Unary:
		fmt.Fprintf(b, "%sUnary %s\n", pad, t.Op)
		writeNode(b, t.X, depth+1)
	case *Binary:
		fmt.Fprintf(b, "%sBinary %s\n", pad, t.Op)
		writeNode(b, t.L, depth+1)
		writeNode(b, t.R, depth+1)
	case *Logical:
		fmt.Fprintf(b, "%sLogical %s\n", pad, t.Op)
		writeNode(b, t.L, depth+1)
		writeNode(b, t.R, depth+1)
	case *ListLit:
		fmt.Fprintf(b, "%sList\n", pad)
		for _, e := range t.Elems {
			writeNode(b, e, depth+1)
		}
	case *DictLit:
		fmt.Fprintf(b, "%sDict\n", pad)
		for i := range t.Keys {
			writeNode(b, t.Keys[i], depth+1)
			writeNode(b, t.Vals[i], depth+2)
		}
	case *Index:
		fmt.Fprintf(b, "%sIndex\n", pad)
		writeNode(b, t.X, depth+1)
		writeNode(b, t.Key, depth+1)
	case *Attr:
		fmt.Fprintf(b, "%sAttr .%s\n", pad, t.Name)
		writeNode(b, t.X, depth+1)
	case *Call:
		fmt.Fprintf(b, "%sCall\n", pad)
		writeNode(b, t.Fn, depth+1)
		for _, a := range t.Args {
			writeNode(b, a, depth+1)
		}
	case *MethodCall:
		fmt.Fprintf(b, "%sMethodCall .%s\n", pad, t.Name)
		writeNode(b, t.Recv, depth+1)
		for _, a := range t.Args {
			writeNode(b, a, depth+1)
		}
	case *Lambda:
		fmt.Fprintf(b, "%sLambda (%s)\n", pad, strings.Join(t.Params, ", "))
		writeNode(b, t.Body, depth+1)
	case *FuncDef:
		fmt.Fprintf(b, "%sFuncDef %s(%s)\n", pad, t.Name, strings.Join(t.Params, ", "))
		writeNode(b, t.Body, depth+1)
	case *Assign:
		fmt.Fprintf(b, "%sAssign %s\n", pad, t.Name)
		writeNode(b, t.Value, depth+1)
	case *PathAssign:
		fmt.Fprintf(b, "%sPathAssign %s%s\n", pad, t.Base.Name, hopsLabel(t.Hops))
		for _, h := range t.Hops {
			if h.Key != nil {
				writeNode(b, h.Key, depth+1)
			}
		}
		writeNode(b, t.Value, depth+1)
	case *If:
		fmt.Fprintf(b, "%sIf\n", pad)
		for _, cl := range t.Clauses {
			fmt.Fprintf(b, "%s  Clause\n", pad)
			writeNode(b, cl.Cond, depth+2)
			writeNode(b, cl.Body, depth+2)
		}
		if t.Else != nil {
			fmt.Fprintf(b, "%s  Else\n", pad)
			writeNode(b, t.Else, depth+2)
		}
	case *ForIn:
		fmt.Fprintf(b, "%sForIn %s\n", pad, t.Var)
		writeNode(b, t.Iter, depth+1)
		writeNode(b, t.Body, depth+1)
	case *Return:
		fmt.Fprintf(b, "%sReturn\n", pad)
		if t.Value != nil {
			writeNode(b, t.Value, depth+1)
		}
	case *Block:
		fmt.Fprintf(b, "%sBlock\n", pad)
		for _, st := range t.Stmts {
			writeNode(b, st, depth+1)
		}
	default:
		fmt.Fprintf(b, "%s%T\n", pad, n)
	}
}

// hopsLabel summarizes a path for the PathAssign header line: named hops
// appear inline, computed hops as "[]".
func hopsLabel(hops []PathHop) string {
	var b strings.Builder
	for _, h := range hops {
		if h.Key != nil {
			b.WriteString("[]")
		} else {
			b.WriteByte('.')
			b.WriteString(h.Name)
		}
	}
	return b.String()
}
