/*
Package hde provides the core of a circuit design and emulation tool: an
identity layer that hands out entity ids and port reservations, and a
synchronous logic network evaluator built on top of it.

Entity ids are allocated by a Registry, lowest free id first. A registry only
holds weak references to the nodes it registers: ids are released either
explicitly or once their node has been collected. Registry.Reset starts a new
generation, turning any reclamation scheduled before it into a no-op, so that
a saved design can be bulk-loaded while older nodes are still being collected.

A Network evaluates nodes in two phases per tick (queue then commit), so that
no node observes a partially updated peer. Several drivers on the same port
combine as a wired-OR.

The gate library lives in package hdelib and the editing facade in package
editor.

*/
package hde
