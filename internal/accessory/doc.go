// Package accessory maps the unit's data points onto a heater/cooler
// accessory model: active, target and current heater/cooler state,
// temperatures in degrees Celsius, fan rotation speed and control lock.
package accessory
