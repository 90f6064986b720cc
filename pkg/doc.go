// Package pkg provides the libraries behind the ffs-ui loader.
//
// # Overview
//
// ffs-ui is a component library shipped as one stylesheet and one script
// per component, plus theme variable sets. The loader brings a page from
// its bare markup to a fully styled state: it adds missing third-party
// dependencies, the base stylesheet, the components the page uses and the
// selected theme. The pkg directory is organized as follows:
//
//  1. [dom] - the page being assembled, its root element and its events
//  2. [resource] - idempotent, concurrent stylesheet and script loading
//  3. [detect] - DOM helper and icon font detection
//  4. [registry] - component name to resource mapping and on-demand loading
//  5. [theme] - theme variables, the persisted preference and subscribers
//  6. [bootstrap] - the ordered one-time startup sequence
//  7. [fetch], [cache], [preference] - transport, response caching and
//     durable preference storage
//
// # Architecture
//
// The startup sequence run by [bootstrap.App]:
//
//	loader tag attributes
//	         ↓
//	    [detect] (jQuery, icon fonts)
//	         ↓
//	    base stylesheet
//	         ↓
//	    registry + theme scripts (parallel)
//	         ↓
//	    [registry] components used on the page
//	         ↓
//	    "ffs:ready", then [theme] initialization
//
// # Quick Start
//
//	doc, _ := dom.ParseString(page)
//	attrs, _ := bootstrap.FindLoaderScript(doc)
//	app := bootstrap.New(doc, fetch.NewClient(nil, 0, nil), bootstrap.ConfigFromAttributes(attrs))
//	if err := app.Run(ctx); err != nil {
//	    return err
//	}
//	if err := app.InitTheme(ctx); err != nil {
//	    return err
//	}
//	doc.Render(os.Stdout)
//
// [dom]: https://pkg.go.dev/github.com/ffs-ui/ffs/pkg/dom
// [resource]: https://pkg.go.dev/github.com/ffs-ui/ffs/pkg/resource
// [detect]: https://pkg.go.dev/github.com/ffs-ui/ffs/pkg/detect
// [registry]: https://pkg.go.dev/github.com/ffs-ui/ffs/pkg/registry
// [theme]: https://pkg.go.dev/github.com/ffs-ui/ffs/pkg/theme
// [bootstrap]: https://pkg.go.dev/github.com/ffs-ui/ffs/pkg/bootstrap
// [bootstrap.App]: https://pkg.go.dev/github.com/ffs-ui/ffs/pkg/bootstrap#App
// [fetch]: https://pkg.go.dev/github.com/ffs-ui/ffs/pkg/fetch
// [cache]: https://pkg.go.dev/github.com/ffs-ui/ffs/pkg/cache
// [preference]: https://pkg.go.dev/github.com/ffs-ui/ffs/pkg/preference
package pkg
