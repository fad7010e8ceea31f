// Package plugin implements vellum's plugin subsystem.
//
// A plugin is any directory containing a ".vellum-plugin/plugin.json"
// manifest. Loading happens in two explicit stages:
//
//   - L1 (manifest-only): read and validate plugin.json. Cheap enough to run
//     eagerly for every discovered plugin so that failures are visible on
//     startup, and so the registry can advertise plugin names before paying
//     the cost of reading every command/agent file.
//   - L2 (full): resolve and parse the commands, agents, and hooks the
//     manifest references.
//
// Every per-plugin load is isolated: one broken plugin.json must never
// prevent the rest from loading. Failures are recorded, not raised, and
// remain inspectable through Manager.GetFailedPlugins so operators can
// diagnose them. Manager.LoadPlugin does not retry a plugin whose manifest
// failed to load: such a plugin has no record, and LoadPlugin reports it as
// not found.
//
// The plugin author-facing pieces (command front-matter, agent front-matter,
// hook rules, the fuzzy autocomplete index, and the trust store) each live in
// their own sub-package; this package owns discovery-to-registry wiring.
package plugin
