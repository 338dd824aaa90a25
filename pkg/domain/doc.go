/*
Package domain contains the core model of the guidepost tutorial engine.

It defines the step graph walked by a run and the values flowing through it.
The package is kept free of I/O; adapters and the runtime depend on it, never
the other way around.

# Key Entities

  - Interaction: a classified event (button press, window opened, policy decision).
  - Step: a waiting state with UI directives, setup/teardown effects and transitions keyed by interaction kind.
  - Graph: the steps of one tutorial, with the structural "start" and "end" steps.
  - Directive: a closed set of UI instructions for the relay.
  - Effect: a side effect on the local host ("dom0") or on a named extension.
*/
package domain
