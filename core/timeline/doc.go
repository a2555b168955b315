// Package timeline defines the typed narrative event contract and the
// append-only store the orchestrator writes into.
//
// Event kinds:
//
//   - MessageEvent (message): a character speaks; carries the line and an
//     optional physical framing.
//   - SceneEvent (scene): the setting changes or is described; carries
//     location and description.
//   - ActionEvent (action): a non-verbal act by a character.
//   - CharacterEntryEvent (character_entry): a character arrives on scene.
//   - CharacterExitEvent (character_exit): a character leaves the scene;
//     removes them from current participants only.
//
// Semantics used across the package:
//
//   - Participants: everyone who has ever appeared, in first-appearance
//     order, never removed.
//   - Current participants: who is on scene right now; the only set an
//     exit mutates.
//   - Record/History: the stored, type-tagged form of events and of the
//     whole timeline; decoding a snapshot replays it into an equivalent
//     timeline.
package timeline
