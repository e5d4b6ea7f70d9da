// Package document provides search capabilities over local documents.
//
// A [Registry] maps a closed set of document kinds (pdf, docx, txt, csv) to
// constructors producing a [SearchTool]. Every SearchTool answers free-text
// queries with the most relevant passages of its document, and can be exposed
// to a language model as a tool with [AsTool].
package document
