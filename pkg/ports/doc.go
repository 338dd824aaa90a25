/*
Package ports defines the driven ports (interfaces) of the guidepost engine.

These interfaces decouple the engine from the processes it coordinates, so the
same run can drive real collaborators over HTTP and the local shell, or the
in-memory recorders used for dry runs and path replay.

# Key Interfaces

  - UINotifier: shows and hides the widgets of the current step.
  - ExtensionClient: toggles tutorial mode and calls functions on extensions.
  - ShellRunner: runs allow-listed commands on the controller host.
  - WindowInspector, ScopeManager: host helpers used by watchers and sessions.
  - Watcher: a background source of interactions.
*/
package ports
