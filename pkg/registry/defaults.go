package registry

// ClassPrefix marks elements that use a component: an element with class
// "ffs-tooltip" uses the tooltip component.
const ClassPrefix = "ffs-"

var defaultNames = []string{
	"ripple",
	"transition",
	"progress",
	"skeleton",
	"person-center",
	"result",
	"list",
	"virtual-list",
	"tooltip",
	"popconfirm",
	"notice",
	"copy",
	"watermark",
}

// Defaults returns the components shipped with the library.
func Defaults() map[string]Config {
	table := make(map[string]Config, len(defaultNames))
	for _, name := range defaultNames {
		table[name] = Config{
			Stylesheet: "styles/" + ClassPrefix + name + ".css",
			Script:     "scripts/" + ClassPrefix + name + ".js",
		}
	}
	return table
}
