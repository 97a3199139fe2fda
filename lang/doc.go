// Package lang implements a string interpolation language for
// configuration values. Input mixes plain text with ${path.to.key}
// references into a configuration tree and ${resolver:arg1,arg2} calls
// into a registry of named resolvers; a modal lexer and recursive
// descent parser build an immutable expression tree, and the
// resolution engine evaluates it to a typed value with cycle detection
// and a bounded recursion depth.
//
// Typical use:
//
//	reg := lang.NewRegistry()
//	_ = reg.Register("upper", upperFunc)
//
//	v, err := lang.Resolve(ctx, "${server.host}:${env:PORT,8080}",
//		lang.WithTree(tree),
//		lang.WithRegistry(reg),
//	)
//
// A value that is exactly one interpolation keeps the resolved type;
// any surrounding text concatenates everything into a string.
package lang
