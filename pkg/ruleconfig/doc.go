// Package ruleconfig compiles per-site style rule documents and resolves
// the effective rule for a URL.
//
// A document is a tree of JSON rule objects. Each rule may carry a regex,
// a level, a comment, macros, templates and three style lists, and may
// nest further rules. Children inherit their parent's resolved attributes;
// rules without a regex only group shared attributes and are flattened
// away. Compile turns a document into an immutable *Rule tree and Resolve
// walks that tree first-match-wins for a URL. Resolver ties this to an
// ordered chain of ConfigSource values and caches the result.
package ruleconfig
