// Package core provides the Core bot module. Every other built-in module
// requires it. Core supplies the bot Identity (display name, owner IDs and
// command prefix) read from the "core" settings block, so channel modules
// agree on who the bot is and who may administer it.
package core
