// Package dom models the page that ffs assembles.
//
// A [Document] wraps an HTML tree parsed with golang.org/x/net/html and
// exposes the handful of operations the loader, registry and theme engine
// need: appending tags to <head>, reading and writing CSS custom properties
// and class markers on the root <html> element, scanning class names used in
// <body>, tracking globals installed by scripts, transient probe elements and
// a synchronous event bus.
//
// Every method is safe for concurrent use.
package dom
