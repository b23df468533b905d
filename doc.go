// Package plugins discovers and loads plugins from disk at startup.
// Plugins are Go source run through Yaegi (https://github.com/traefik/yaegi), the Go interpreter,
// each in an interpreter of its own so that no plugin can see another's code.
//
// # How it Works
//
// A plugin root holds one directory per plugin. Only the immediate subdirectories of the root are looked at.
// Each directory must contain the plugin's archive, a zip file found from the directory's name:
// if the name is a UUID, the archive must be called <uuid>.zip;
// otherwise the name is lower-cased, spaces become hyphens, and the first file starting with that is used.
//
// The archive carries a manifest at blocks/manifest.ini giving the plugin's name, version, UUID and entrypoint.
// These are checked before any code is loaded.
// The entrypoint's package is then imported into a fresh interpreter whose GOPATH is made of the zip files in the plugin's directory,
// its type is checked against api.Plugin, and New<Type> is called to create the plugin.
// Successful plugins are registered by UUID; a later plugin with the same UUID replaces an earlier one.
//
// A scan is either silent, logging failures and moving on, or strict, stopping at the first failure.
//
// # Usage
//
// Usage is rather simple:
//	import "github.com/chabad360/blocks"
//
//	func main() {
//		host, err := plugins.Open(context.Background(), cfg)
//		if err != nil {
//			panic(err)
//		}
//		defer host.Close()
//
//		host.NotifyLoaded()
//
//		for _, rec := range host.Plugins() {
//			fmt.Println(rec.Identity())
//		}
//	}
//
// # Plugin Format
//
// Plugins are directories with the following structure:
//	foo-plugin/ (or 123e4567-e89b-12d3-a456-426614174000/)
//	 └ foo-plugin-1.0.zip (or 123e4567-e89b-12d3-a456-426614174000.zip)
//	    ├ blocks/manifest.ini
//	    └ src/example.com/foo/
//	       ├ foo.go
//	       ┊
//
// manifest.ini example:
//	name=Foo Plugin
//	version=1.0
//	uuid=123e4567-e89b-12d3-a456-426614174000
//	[classes]
//	entrypoint=example.com/foo.FooPlugin
package plugins
