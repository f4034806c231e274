// Package domain holds the bleed engine's core types and pure rules:
// worlds, zones, embassies, events, echoes, per-world settings, and the
// threshold arithmetic that decides whether an occurrence crosses a channel.
//
// Everything in this package is side-effect free. Persistence lives in the
// storage packages; propagation orchestration lives in cascade.
package domain
