// Package common holds helpers shared by the deployment services: the
// external command runner used for every collaborator CLI, and the marker
// file guard that keeps two packaging runs from sharing a working directory.
package common
