// Package vulkan holds the replay checks for the Vulkan demos. Importing it
// registers every case with the harness.
package vulkan
