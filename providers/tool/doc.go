// Package tool provides the types used to expose Go functions to language
// models as callable tools.
//
// [NewTool] wraps a typed function with a name, description and JSON Schema;
// [GenericTool] is the type-erased view the client dispatches on; [Catalog]
// is a thread-safe, case-insensitive registry of tools.
//
// Document search tools built on top of this package live in tool/document.
package tool
