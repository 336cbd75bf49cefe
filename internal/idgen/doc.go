// Package idgen wraps the UUID generator behind a stubbable seam. It lives
// under internal because identifiers are opaque strings; callers must not
// depend on their exact format.
package idgen
