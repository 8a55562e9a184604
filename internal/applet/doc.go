// Package applet builds applets and apps from a dxapp.json source directory.
// Applets are created in the destination project; apps are created from an
// applet built in the ambient workspace and can be published in the same run.
package applet
