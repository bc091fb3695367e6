// Package lang implements ESP, a small embedded scripting language with
// numbers, strings, booleans, objects, arrays, and first-class closures.
//
// # Usage
//
//	it := lang.New(lang.WithNamespace(lang.MathNamespace()))
//	it.Parse(ctx, "function fl(n) {if (n < 2) {1} else {n * fl(n - 1)}}")
//	v, err := it.Parse(ctx, "fl(5)") // Number(120)
//
// Each call to [Interpreter.Parse] compiles and evaluates one source text
// against the interpreter's global environment, which persists across calls.
// The result is the value of the last expression statement.
//
// # Grammar
//
// Informal EBNF:
//
//	Program    → Stmt ((';' | newline) Stmt)*
//	Stmt       → 'var' Ident (('=' | '?=' | '??=') Expr)?
//	           | 'function' Ident '(' Params ')' Block
//	           | 'for' '(' Ident ':' Expr '..' Expr ')' Block
//	           | Block
//	           | '='? Expr
//	Block      → '{' Program '}'
//	Expr       → Assign | Ternary | Binary | Unary | Postfix | Primary
//	Primary    → Number | String | 'true' | 'false' | 'null' | 'undefined'
//	           | Ident | 'this' | '(' Expr ')' | '[' Exprs ']'
//	           | '{' (Key ':' Expr | Ident '(' Params ')' Block),* '}'
//	           | 'function' Ident? '(' Params ')' Block
//	           | 'if' '(' Expr ')' Block ('else' (Block | If))?
//	           | 'var' '.' Ident
//
// Operators, loosest first: = ?: || && | ^ & (== !=) (< <= > >= instanceof)
// (<< >> >>>) (+ -) (* / %), prefix (- ! ~ void throw new), and postfix
// calls, member access, and indexing.
//
// # Semantics
//
// Numbers are IEEE-754 doubles. Objects and arrays have reference
// semantics. Functions close over their defining scope; missing arguments
// are undefined and extra arguments are ignored. var declares in the
// nearest function scope; plain assignment to an undeclared name is an
// error. Conditions must be booleans and mixed-type comparisons are errors,
// except that null and undefined compare equal only to each other.
//
// # Errors
//
// Every failure is an [*Error] of kind syntax, runtime, or resource,
// matchable with errors.Is against [ErrSyntax], [ErrRuntime], and
// [ErrResource]. A failed Parse leaves earlier global bindings intact.
//
// # Concurrency
//
// An [Interpreter] is not safe for concurrent use. Compiled programs are
// cached process-wide and the cache is safe for concurrent use.
package lang
